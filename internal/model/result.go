package model

// UploadFailure records one transaction that could not be posted.
type UploadFailure struct {
	Index       int // position in the slice handed to the upload
	Transaction Transaction
	Reason      string
}

// CreatedExpense records one transaction posted to the ledger.
type CreatedExpense struct {
	Index       int
	Transaction Transaction
	ExpenseID   string
}

// UploadResult aggregates the outcome of a single upload invocation.
type UploadResult struct {
	Attempted int
	Succeeded int
	Failures  []UploadFailure
	Created   []CreatedExpense
}

// Failed returns the number of attempted transactions that were not posted.
func (r *UploadResult) Failed() int {
	return r.Attempted - r.Succeeded
}

// SucceededIndexes returns the input positions that were posted, in order.
func (r *UploadResult) SucceededIndexes() []int {
	idx := make([]int, len(r.Created))
	for i, c := range r.Created {
		idx[i] = c.Index
	}
	return idx
}
