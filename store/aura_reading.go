package store

type AuraReading struct {
	ID         int32
	UserID     int32
	Score      int32
	Color      string
	Element    string
	Reading    string
	MatchedID  string
	SelfiePath string
	CreatedTs  int64
}

type FindAuraReading struct {
	ID     *int32
	UserID *int32
	Limit  *int
}

type DeleteAuraReading struct {
	ID int32
}
