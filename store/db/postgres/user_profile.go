package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/auralabs/auraglow/store"
)

const userProfileColumns = `id, uid, user_id, name, bio, gender, avatar_url, chat_points, aura_gems,
	stage_mira, stage_rutwik, memories, current_streak, total_duel_wins, achievements,
	aura_boost, last_aura_ts, created_ts, updated_ts`

func (d *DB) CreateUserProfile(ctx context.Context, create *store.UserProfile) (*store.UserProfile, error) {
	now := time.Now().Unix()
	if create.CreatedTs == 0 {
		create.CreatedTs = now
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = now
	}

	fields := []string{
		"uid", "user_id", "name", "bio", "gender", "avatar_url", "chat_points", "aura_gems",
		"stage_mira", "stage_rutwik", "memories", "current_streak", "total_duel_wins", "achievements",
		"aura_boost", "last_aura_ts", "created_ts", "updated_ts",
	}
	args := []any{
		create.UID, create.UserID, create.Name, create.Bio, create.Gender, create.AvatarURL, create.ChatPoints, create.AuraGems,
		create.StageMira, create.StageRutwik, marshalStringList(create.Memories), create.CurrentStreak, create.TotalDuelWins, marshalStringList(create.Achievements),
		create.AuraBoost, create.LastAuraTs, create.CreatedTs, create.UpdatedTs,
	}

	stmt := `INSERT INTO user_profile (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create user profile")
	}
	return create, nil
}

func (d *DB) GetUserProfile(ctx context.Context, find *store.FindUserProfile) (*store.UserProfile, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}

	query := `SELECT ` + userProfileColumns + ` FROM user_profile WHERE ` + strings.Join(where, " AND ")
	row := d.db.QueryRowContext(ctx, query, args...)
	userProfile, err := scanUserProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user profile")
	}
	return userProfile, nil
}

func (d *DB) UpdateUserProfile(ctx context.Context, update *store.UpdateUserProfile) (*store.UserProfile, error) {
	set, args := []string{}, []any{}
	setField := func(column string, value any) {
		set = append(set, column+" = "+placeholder(len(args)+1))
		args = append(args, value)
	}

	if update.Name != nil {
		setField("name", *update.Name)
	}
	if update.Bio != nil {
		setField("bio", *update.Bio)
	}
	if update.Gender != nil {
		setField("gender", *update.Gender)
	}
	if update.AvatarURL != nil {
		setField("avatar_url", *update.AvatarURL)
	}
	if update.ChatPoints != nil {
		setField("chat_points", *update.ChatPoints)
	}
	if update.AuraGems != nil {
		setField("aura_gems", *update.AuraGems)
	}
	if update.AddChatPoints != nil {
		set = append(set, "chat_points = GREATEST(chat_points + "+placeholder(len(args)+1)+", 0)")
		args = append(args, *update.AddChatPoints)
	}
	if update.AddAuraGems != nil {
		set = append(set, "aura_gems = GREATEST(aura_gems + "+placeholder(len(args)+1)+", 0)")
		args = append(args, *update.AddAuraGems)
	}
	if update.StageMira != nil {
		setField("stage_mira", *update.StageMira)
	}
	if update.StageRutwik != nil {
		setField("stage_rutwik", *update.StageRutwik)
	}
	if update.Memories != nil {
		setField("memories", marshalStringList(*update.Memories))
	}
	if update.CurrentStreak != nil {
		setField("current_streak", *update.CurrentStreak)
	}
	if update.TotalDuelWins != nil {
		setField("total_duel_wins", *update.TotalDuelWins)
	}
	if update.Achievements != nil {
		setField("achievements", marshalStringList(*update.Achievements))
	}
	if update.AuraBoost != nil {
		setField("aura_boost", *update.AuraBoost)
	}
	if update.LastAuraTs != nil {
		setField("last_aura_ts", *update.LastAuraTs)
	}
	if len(set) == 0 {
		return d.GetUserProfile(ctx, &store.FindUserProfile{UserID: &update.UserID})
	}

	updatedTs := time.Now().Unix()
	if update.UpdatedTs != nil {
		updatedTs = *update.UpdatedTs
	}
	setField("updated_ts", updatedTs)
	args = append(args, update.UserID)

	stmt := `UPDATE user_profile SET ` + strings.Join(set, ", ") + ` WHERE user_id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to update user profile")
	}

	return d.GetUserProfile(ctx, &store.FindUserProfile{UserID: &update.UserID})
}

func (d *DB) DeleteUserProfile(ctx context.Context, delete *store.DeleteUserProfile) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM user_profile WHERE user_id = $1`, delete.UserID); err != nil {
		return errors.Wrap(err, "failed to delete user profile")
	}
	return nil
}

func scanUserProfile(row *sql.Row) (*store.UserProfile, error) {
	userProfile := &store.UserProfile{}
	var memories, achievements string
	if err := row.Scan(
		&userProfile.ID, &userProfile.UID, &userProfile.UserID,
		&userProfile.Name, &userProfile.Bio, &userProfile.Gender, &userProfile.AvatarURL,
		&userProfile.ChatPoints, &userProfile.AuraGems,
		&userProfile.StageMira, &userProfile.StageRutwik, &memories,
		&userProfile.CurrentStreak, &userProfile.TotalDuelWins, &achievements,
		&userProfile.AuraBoost, &userProfile.LastAuraTs,
		&userProfile.CreatedTs, &userProfile.UpdatedTs,
	); err != nil {
		return nil, err
	}
	userProfile.Memories = unmarshalStringList(memories)
	userProfile.Achievements = unmarshalStringList(achievements)
	return userProfile, nil
}
