package store

// UserProfile is the persisted aggregate for one user. The companion turn
// pipeline mutates only chat points, the per-persona relationship stage and
// the memory list; all other fields belong to peripheral features (shop,
// aura readings, streak tracking).
type UserProfile struct {
	ID     int32
	UID    string
	UserID int32

	Name      string
	Bio       string
	Gender    string
	AvatarURL string

	ChatPoints int32
	AuraGems   int32

	StageMira   string
	StageRutwik string
	Memories    []string

	CurrentStreak int32
	TotalDuelWins int32
	Achievements  []string

	// AuraBoost marks a purchased +10 bonus consumed by the next reading.
	AuraBoost  bool
	LastAuraTs int64

	CreatedTs int64
	UpdatedTs int64
}

type FindUserProfile struct {
	ID     *int32
	UID    *string
	UserID *int32
}

// UpdateUserProfile carries a field-scoped patch. Only non-nil fields are
// written, so concurrent writers of unrelated fields cannot clobber each
// other with a stale full-profile overwrite.
type UpdateUserProfile struct {
	UserID int32

	Name      *string
	Bio       *string
	Gender    *string
	AvatarURL *string

	ChatPoints *int32
	AuraGems   *int32

	// AddChatPoints and AddAuraGems apply a relative balance change in the
	// database, clamped at zero. Balance mutations must use these instead
	// of the absolute fields: an absolute write computed from an earlier
	// read would erase a concurrent writer's change.
	AddChatPoints *int32
	AddAuraGems   *int32

	StageMira   *string
	StageRutwik *string
	Memories    *[]string

	CurrentStreak *int32
	TotalDuelWins *int32
	Achievements  *[]string

	AuraBoost  *bool
	LastAuraTs *int64

	UpdatedTs *int64
}

type DeleteUserProfile struct {
	UserID int32
}
