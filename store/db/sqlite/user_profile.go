package sqlite

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

	stmt := `INSERT INTO user_profile (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `)`
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user profile")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get last insert id")
	}
	create.ID = int32(id)
	return create, nil
}

func (d *DB) GetUserProfile(ctx context.Context, find *store.FindUserProfile) (*store.UserProfile, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
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
	if update.Name != nil {
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.Bio != nil {
		set, args = append(set, "bio = ?"), append(args, *update.Bio)
	}
	if update.Gender != nil {
		set, args = append(set, "gender = ?"), append(args, *update.Gender)
	}
	if update.AvatarURL != nil {
		set, args = append(set, "avatar_url = ?"), append(args, *update.AvatarURL)
	}
	if update.ChatPoints != nil {
		set, args = append(set, "chat_points = ?"), append(args, *update.ChatPoints)
	}
	if update.AuraGems != nil {
		set, args = append(set, "aura_gems = ?"), append(args, *update.AuraGems)
	}
	if update.AddChatPoints != nil {
		set, args = append(set, "chat_points = MAX(chat_points + ?, 0)"), append(args, *update.AddChatPoints)
	}
	if update.AddAuraGems != nil {
		set, args = append(set, "aura_gems = MAX(aura_gems + ?, 0)"), append(args, *update.AddAuraGems)
	}
	if update.StageMira != nil {
		set, args = append(set, "stage_mira = ?"), append(args, *update.StageMira)
	}
	if update.StageRutwik != nil {
		set, args = append(set, "stage_rutwik = ?"), append(args, *update.StageRutwik)
	}
	if update.Memories != nil {
		set, args = append(set, "memories = ?"), append(args, marshalStringList(*update.Memories))
	}
	if update.CurrentStreak != nil {
		set, args = append(set, "current_streak = ?"), append(args, *update.CurrentStreak)
	}
	if update.TotalDuelWins != nil {
		set, args = append(set, "total_duel_wins = ?"), append(args, *update.TotalDuelWins)
	}
	if update.Achievements != nil {
		set, args = append(set, "achievements = ?"), append(args, marshalStringList(*update.Achievements))
	}
	if update.AuraBoost != nil {
		set, args = append(set, "aura_boost = ?"), append(args, *update.AuraBoost)
	}
	if update.LastAuraTs != nil {
		set, args = append(set, "last_aura_ts = ?"), append(args, *update.LastAuraTs)
	}
	if len(set) == 0 {
		return d.GetUserProfile(ctx, &store.FindUserProfile{UserID: &update.UserID})
	}

	updatedTs := time.Now().Unix()
	if update.UpdatedTs != nil {
		updatedTs = *update.UpdatedTs
	}
	set, args = append(set, "updated_ts = ?"), append(args, updatedTs)
	args = append(args, update.UserID)

	stmt := `UPDATE user_profile SET ` + strings.Join(set, ", ") + ` WHERE user_id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to update user profile")
	}

	return d.GetUserProfile(ctx, &store.FindUserProfile{UserID: &update.UserID})
}

func (d *DB) DeleteUserProfile(ctx context.Context, delete *store.DeleteUserProfile) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM user_profile WHERE user_id = ?`, delete.UserID); err != nil {
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
