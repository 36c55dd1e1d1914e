package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix       = "user:%d"
	PreferenceKeyPrefix = "user:%d:preference"
	TargetsKeyPrefix    = "user:%d:targets"
	MenuKeyPrefix       = "menu:%d"
	ArticleKeyPrefix    = "article:%s"
	IngredientsKey      = "ingredients:all"
)

const (
	UserTTL        = 5 * time.Minute
	PreferenceTTL  = 5 * time.Minute
	TargetsTTL     = 10 * time.Minute
	MenuTTL        = 30 * time.Minute
	ArticleTTL     = 10 * time.Minute
	IngredientsTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PreferenceKey(userID uint) string {
	return fmt.Sprintf(PreferenceKeyPrefix, userID)
}

func TargetsKey(userID uint) string {
	return fmt.Sprintf(TargetsKeyPrefix, userID)
}

func MenuKey(menuID uint) string {
	return fmt.Sprintf(MenuKeyPrefix, menuID)
}

func ArticleKey(slug string) string {
	return fmt.Sprintf(ArticleKeyPrefix, slug)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateUserNutrition drops the preference row and the targets derived
// from it. Any preference write must go through here, otherwise the
// recommendation engine keeps scoring against stale targets.
func InvalidateUserNutrition(ctx context.Context, userID uint) {
	Invalidate(ctx, PreferenceKey(userID))
	Invalidate(ctx, TargetsKey(userID))
}

func InvalidateMenu(ctx context.Context, menuID uint) {
	Invalidate(ctx, MenuKey(menuID))
}

func InvalidateArticle(ctx context.Context, slug string) {
	Invalidate(ctx, ArticleKey(slug))
}

func InvalidateIngredients(ctx context.Context) {
	Invalidate(ctx, IngredientsKey)
}
