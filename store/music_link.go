package store

// MusicLink holds the streaming-provider tokens for one user. Tokens are
// stored and passed explicitly; nothing in the process holds them as
// ambient mutable state.
type MusicLink struct {
	UserID       int32
	AccessToken  string
	RefreshToken string
	// Expiry is the unix timestamp at which AccessToken expires.
	Expiry    int64
	UpdatedTs int64
}

type FindMusicLink struct {
	UserID int32
}

type DeleteMusicLink struct {
	UserID int32
}
