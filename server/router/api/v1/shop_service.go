package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/auralabs/auraglow/server/internal/errors"
	"github.com/auralabs/auraglow/store"
)

// ShopItem is a gem-priced catalog entry.
type ShopItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Price       int32  `json:"price"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

var shopCatalog = []ShopItem{
	{
		ID:          "chat_points_small",
		Title:       "50 Chat Points",
		Price:       10,
		Currency:    "gems",
		Description: "Continue conversations with AI companions",
	},
	{
		ID:          "chat_points_large",
		Title:       "200 Chat Points",
		Price:       35,
		Currency:    "gems",
		Description: "Best value for long conversations",
	},
	{
		ID:          "premium_features",
		Title:       "Premium Unlock",
		Price:       100,
		Currency:    "gems",
		Description: "Voice messages, custom AI personalities",
	},
	{
		ID:          "aura_boost",
		Title:       "Aura Boost",
		Price:       20,
		Currency:    "gems",
		Description: "+10 to your next aura reading",
	},
}

// ListShopItems returns the catalog.
// GET /api/v1/shop/items
func (s *APIV1Service) ListShopItems(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"items": shopCatalog})
}

type PurchaseRequest struct {
	ItemID string `json:"itemId"`
}

type PurchaseResponse struct {
	Item       ShopItem `json:"item"`
	AuraGems   int32    `json:"auraGems"`
	ChatPoints int32    `json:"chatPoints"`
	AuraBoost  bool     `json:"auraBoost"`
}

// PurchaseShopItem spends gems on a catalog item and applies its effect as
// a field-scoped profile patch.
// POST /api/v1/shop/purchase
func (s *APIV1Service) PurchaseShopItem(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperrors.InvalidInput("malformed request body"))
	}

	var item *ShopItem
	for i := range shopCatalog {
		if shopCatalog[i].ID == req.ItemID {
			item = &shopCatalog[i]
			break
		}
	}
	if item == nil {
		return errorJSON(c, apperrors.InvalidInput("unknown shop item"))
	}

	userProfile, err := s.Store.GetUserProfile(ctx, &store.FindUserProfile{UserID: &userID})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user profile"))
	}
	if userProfile == nil {
		return errorJSON(c, apperrors.NotFound("user profile not found"))
	}
	if userProfile.AuraGems < item.Price {
		return errorJSON(c, apperrors.ResourceExhausted("not enough gems for this purchase"))
	}

	// Balance changes are relative to the stored value, never absolute.
	cost := -item.Price
	now := time.Now().Unix()
	update := &store.UpdateUserProfile{
		UserID:      userID,
		AddAuraGems: &cost,
		UpdatedTs:   &now,
	}

	switch item.ID {
	case "chat_points_small":
		grant := int32(50)
		update.AddChatPoints = &grant
	case "chat_points_large":
		grant := int32(200)
		update.AddChatPoints = &grant
	case "aura_boost":
		boost := true
		update.AuraBoost = &boost
	case "premium_features":
		achievements := append(userProfile.Achievements, "premium_unlocked")
		update.Achievements = &achievements
	}

	updated, err := s.Store.UpdateUserProfile(ctx, update)
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to apply purchase"))
	}

	return c.JSON(http.StatusOK, PurchaseResponse{
		Item:       *item,
		AuraGems:   updated.AuraGems,
		ChatPoints: updated.ChatPoints,
		AuraBoost:  updated.AuraBoost,
	})
}
