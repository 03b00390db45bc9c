package v1

import (
	"fmt"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	apperrors "github.com/auralabs/auraglow/server/internal/errors"
	"github.com/auralabs/auraglow/server/service/companion"
	"github.com/auralabs/auraglow/store"
)

const (
	maxSelfieBytes = 8 << 20
	thumbnailSize  = 512
	auraBoostBonus = 10
	dailyGemReward = 5
	maxAuraScore   = 100
)

var (
	auraColors   = []string{"Gold", "Purple", "Blue", "Green", "Pink"}
	auraElements = []string{"Fire", "Water", "Earth", "Air", "Spirit"}
	auraReadings = []string{
		"Your energy radiates creativity and passion today.",
		"A calm and intuitive wave surrounds you. Trust your gut.",
		"Your spirit is bright and full of positive potential.",
		"You have a strong, grounding energy today. Stay centered.",
	}
)

// AuraReadingResponse is one revealed reading.
type AuraReadingResponse struct {
	ID        int32  `json:"id"`
	Score     int32  `json:"score"`
	Color     string `json:"color"`
	Element   string `json:"element"`
	Reading   string `json:"reading"`
	MatchedID string `json:"matchedCharacter"`
	CreatedTs int64  `json:"createdTs"`
}

// RevealAuraResponse carries the reading plus the profile fields the reveal
// changed.
type RevealAuraResponse struct {
	Reading       *AuraReadingResponse `json:"reading"`
	AuraGems      int32                `json:"auraGems"`
	CurrentStreak int32                `json:"currentStreak"`
	GemsAwarded   int32                `json:"gemsAwarded"`
	BoostApplied  bool                 `json:"boostApplied"`
}

// RevealAura analyzes an uploaded selfie into a daily aura reading. A
// pending aura boost raises the score once; the first reading of a day
// grants gems and advances the streak.
// POST /api/v1/aura/reveal
func (s *APIV1Service) RevealAura(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	fileHeader, err := c.FormFile("selfie")
	if err != nil {
		return errorJSON(c, apperrors.InvalidInput("a selfie upload is required"))
	}
	if fileHeader.Size > maxSelfieBytes {
		return errorJSON(c, apperrors.InvalidInput("selfie is too large"))
	}

	userProfile, err := s.Store.GetUserProfile(ctx, &store.FindUserProfile{UserID: &userID})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user profile"))
	}
	if userProfile == nil {
		return errorJSON(c, apperrors.NotFound("user profile not found"))
	}

	selfiePath, err := s.saveSelfieThumbnail(c, fileHeader, userID)
	if err != nil {
		return errorJSON(c, err)
	}

	score := int32(rand.Intn(50) + 51)
	boostApplied := userProfile.AuraBoost
	if boostApplied {
		score = min(score+auraBoostBonus, maxAuraScore)
	}

	matched := companion.PersonaMira
	if rand.Intn(2) == 1 {
		matched = companion.PersonaRutwik
	}

	now := time.Now()
	reading, err := s.Store.CreateAuraReading(ctx, &store.AuraReading{
		UserID:     userID,
		Score:      score,
		Color:      auraColors[rand.Intn(len(auraColors))],
		Element:    auraElements[rand.Intn(len(auraElements))],
		Reading:    auraReadings[rand.Intn(len(auraReadings))],
		MatchedID:  matched.String(),
		SelfiePath: selfiePath,
		CreatedTs:  now.Unix(),
	})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to save aura reading"))
	}

	firstToday := !sameDay(time.Unix(userProfile.LastAuraTs, 0), now)
	var gemsAwarded int32
	if firstToday {
		gemsAwarded = dailyGemReward
	}
	streak := nextStreak(userProfile.CurrentStreak, userProfile.LastAuraTs, now)

	lastAuraTs := now.Unix()
	boostOff := false
	update := &store.UpdateUserProfile{
		UserID:        userID,
		CurrentStreak: &streak,
		LastAuraTs:    &lastAuraTs,
	}
	if gemsAwarded > 0 {
		update.AddAuraGems = &gemsAwarded
	}
	if boostApplied {
		update.AuraBoost = &boostOff
	}
	updated, err := s.Store.UpdateUserProfile(ctx, update)
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update user profile"))
	}

	return c.JSON(http.StatusOK, RevealAuraResponse{
		Reading:       convertAuraReadingResponse(reading),
		AuraGems:      updated.AuraGems,
		CurrentStreak: streak,
		GemsAwarded:   gemsAwarded,
		BoostApplied:  boostApplied,
	})
}

// ListAuraReadings returns the caller's reading history, newest first.
// GET /api/v1/aura/readings
func (s *APIV1Service) ListAuraReadings(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	limit := 30
	readings, err := s.Store.ListAuraReadings(ctx, &store.FindAuraReading{
		UserID: &userID,
		Limit:  &limit,
	})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list aura readings"))
	}

	resp := make([]*AuraReadingResponse, 0, len(readings))
	for _, reading := range readings {
		resp = append(resp, convertAuraReadingResponse(reading))
	}
	return c.JSON(http.StatusOK, map[string]any{"readings": resp})
}

func convertAuraReadingResponse(reading *store.AuraReading) *AuraReadingResponse {
	return &AuraReadingResponse{
		ID:        reading.ID,
		Score:     reading.Score,
		Color:     reading.Color,
		Element:   reading.Element,
		Reading:   reading.Reading,
		MatchedID: reading.MatchedID,
		CreatedTs: reading.CreatedTs,
	}
}

// saveSelfieThumbnail decodes the upload, fits it into a bounded square and
// writes the JPEG under the data directory. The semaphore bounds how many
// decodes run at once.
func (s *APIV1Service) saveSelfieThumbnail(c echo.Context, fileHeader *multipart.FileHeader, userID int32) (string, error) {
	ctx := c.Request().Context()
	if err := s.thumbnailSemaphore.Acquire(ctx, 1); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "request cancelled")
	}
	defer s.thumbnailSemaphore.Release(1)

	file, err := fileHeader.Open()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to read selfie upload")
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return "", apperrors.InvalidInput("selfie is not a decodable image")
	}
	thumbnail := imaging.Fit(img, thumbnailSize, thumbnailSize, imaging.Lanczos)

	dir := filepath.Join(s.Profile.Data, "selfies")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create selfie directory")
	}
	path := filepath.Join(dir, fmt.Sprintf("%d_%s.jpg", userID, shortuuid.New()))
	if err := imaging.Save(thumbnail, path, imaging.JPEGQuality(85)); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to save selfie thumbnail")
	}
	return path, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// nextStreak advances the daily streak: consecutive-day reveals extend it,
// a same-day reveal keeps it, anything else resets to 1.
func nextStreak(current int32, lastAuraTs int64, now time.Time) int32 {
	if lastAuraTs == 0 {
		return 1
	}
	last := time.Unix(lastAuraTs, 0)
	if sameDay(last, now) {
		if current < 1 {
			return 1
		}
		return current
	}
	if sameDay(last.AddDate(0, 0, 1), now) {
		return current + 1
	}
	return 1
}
