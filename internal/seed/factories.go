// Package seed provides helpers to create demo and test data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"nutribunda/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Dietary restriction samples drawn for a fraction of seeded profiles.
var (
	commonAllergens    = []string{"udang", "telur", "kacang tanah", "susu sapi", "ikan laut"}
	commonProhibitions = []string{"daging mentah", "kafein", "makanan pedas", "durian"}
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	r    *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
	// role name -> id, so volume runs do one lookup per role
	roleIDs map[string]uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	// #nosec G404: acceptable for seeding
	return &Factory{
		db:      db,
		opts:    opts,
		r:       rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID:  1000,
		roleIDs: make(map[string]uint),
	}
}

// pastTime spreads timestamps over the configured MaxDays window so seeded
// history does not bunch at "now".
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.r.Intn(maxDays)
	hoursBack := f.r.Intn(24)
	minsBack := f.r.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

func (f *Factory) roleID(name string) (uint, error) {
	if id, ok := f.roleIDs[name]; ok {
		return id, nil
	}
	var role models.Role
	if err := f.db.Where("name = ?", name).First(&role).Error; err != nil {
		return 0, fmt.Errorf("look up role %s: %w", name, err)
	}
	f.roleIDs[name] = role.ID
	return role.ID, nil
}

// CreateUser constructs and persists a sample `models.User` holding the
// given role. Optional override functions may modify the generated user
// before saving.
func (f *Factory) CreateUser(roleName string, overrides ...func(*models.User)) (*models.User, error) {
	handle := strings.ToLower(gofakeit.Username())
	user := &models.User{
		Name:   gofakeit.Name(),
		Email:  fmt.Sprintf("%s%d@%s", handle, gofakeit.Number(100, 999), gofakeit.DomainName()),
		Avatar: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	if !f.opts.DryRun && roleName != "" {
		id, err := f.roleID(roleName)
		if err != nil {
			return nil, err
		}
		user.RoleID = &id
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: role=%s email=%s", roleName, user.Email)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePreference constructs and persists a role-shaped profile for the
// given user. Values fall in plausible ranges so the target calculator
// produces sensible numbers for seeded accounts.
func (f *Factory) CreatePreference(user *models.User, roleName string, overrides ...func(*models.UserPreference)) (*models.UserPreference, error) {
	pref := &models.UserPreference{
		UserID: user.ID,
		Role:   roleName,
	}

	switch roleName {
	case models.RolePregnant:
		height := 148 + f.r.Intn(25)
		weight := 45 + f.r.Float64()*35
		age := 19 + f.r.Intn(22)
		lila := 22 + f.r.Float64()*8
		hpht := time.Now().AddDate(0, 0, -7*(4+f.r.Intn(33)))
		pref.HeightCm = &height
		pref.WeightKg = &weight
		pref.AgeYear = &age
		pref.LilaCm = &lila
		pref.Hpht = &hpht
	case models.RoleLactating:
		height := 148 + f.r.Intn(25)
		weight := 45 + f.r.Float64()*35
		age := 19 + f.r.Intn(22)
		phase := "0-6"
		if f.r.Intn(2) == 1 {
			phase = "6-12"
		}
		pref.HeightCm = &height
		pref.WeightKg = &weight
		pref.AgeYear = &age
		pref.LactationPhase = &phase
	case models.RoleToddler:
		months := f.r.Intn(24)
		height := 49 + f.r.Intn(44)
		weight := 3 + f.r.Float64()*11
		pref.AgeMonth = &months
		pref.HeightCm = &height
		pref.WeightKg = &weight
	}

	if f.r.Intn(4) == 0 {
		pref.Allergens = models.StringList{commonAllergens[f.r.Intn(len(commonAllergens))]}
	}
	if f.r.Intn(5) == 0 {
		pref.FoodProhibitions = models.StringList{commonProhibitions[f.r.Intn(len(commonProhibitions))]}
	}

	for _, override := range overrides {
		override(pref)
	}

	if f.opts.DryRun {
		log.Printf("[dry-run] CreatePreference: user=%d role=%s", user.ID, roleName)
		return pref, nil
	}

	if err := f.db.Create(pref).Error; err != nil {
		return nil, err
	}
	return pref, nil
}

// CreateFoodLog persists a logged ingredient portion for the given user,
// spread over the configured history window.
func (f *Factory) CreateFoodLog(user *models.User, ingredient *models.FoodIngredient, overrides ...func(*models.FoodLog)) (*models.FoodLog, error) {
	entry := &models.FoodLog{
		UserID:       user.ID,
		IngredientID: ingredient.ID,
		QuantityG:    float64(50 + f.r.Intn(201)),
		LoggedAt:     f.pastTime(),
	}

	for _, override := range overrides {
		override(entry)
	}

	if f.opts.DryRun {
		f.nextID++
		entry.ID = f.nextID
		log.Printf("[dry-run] CreateFoodLog: user=%d ingredient=%d qty=%.0fg", entry.UserID, entry.IngredientID, entry.QuantityG)
		return entry, nil
	}

	if err := f.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// CreateMealLog persists a whole-menu log with totals frozen from the menu's
// current composition, the same way the API freezes them. The menu's
// ingredient rows must be preloaded.
func (f *Factory) CreateMealLog(user *models.User, menu *models.FoodMenu, overrides ...func(*models.FoodMealLog)) (*models.FoodMealLog, error) {
	mealLog := &models.FoodMealLog{
		UserID:     user.ID,
		MenuID:     menu.ID,
		Servings:   1,
		IsConsumed: f.r.Intn(2) == 1,
		LoggedAt:   f.pastTime(),
	}

	for _, comp := range menu.Ingredients {
		if comp.Ingredient.ID == 0 || comp.QuantityG == nil {
			continue
		}
		factor := *comp.QuantityG / 100
		item := models.FoodMealLogItem{
			IngredientID: comp.IngredientID,
			QuantityG:    *comp.QuantityG,
			Calories:     int(float64(comp.Ingredient.Calories) * factor),
			ProteinG:     comp.Ingredient.ProteinG * factor,
			CarbsG:       comp.Ingredient.CarbsG * factor,
			FatG:         comp.Ingredient.FatG * factor,
		}
		mealLog.TotalCalories += item.Calories
		mealLog.TotalProteinG += item.ProteinG
		mealLog.TotalCarbsG += item.CarbsG
		mealLog.TotalFatG += item.FatG
		mealLog.Items = append(mealLog.Items, item)
	}

	for _, override := range overrides {
		override(mealLog)
	}

	if f.opts.DryRun {
		f.nextID++
		mealLog.ID = f.nextID
		log.Printf("[dry-run] CreateMealLog: user=%d menu=%d calories=%d", mealLog.UserID, mealLog.MenuID, mealLog.TotalCalories)
		return mealLog, nil
	}

	if err := f.db.Create(mealLog).Error; err != nil {
		return nil, err
	}
	return mealLog, nil
}

// CreateFeedback persists a rating with a comment. Entries with a middle
// rating, plus roughly a third of the rest, carry no sentiment label, the
// same gap classifier downtime leaves in production.
func (f *Factory) CreateFeedback(user *models.User, overrides ...func(*models.Feedback)) (*models.Feedback, error) {
	feedback := &models.Feedback{
		UserID:    user.ID,
		Rating:    1 + f.r.Intn(5),
		Comment:   gofakeit.Sentence(12),
		CreatedAt: f.pastTime(),
	}
	if feedback.Rating != 3 && f.r.Intn(3) > 0 {
		label := "Positif"
		if feedback.Rating <= 2 {
			label = "Negatif"
		}
		feedback.Classification = &label
	}

	for _, override := range overrides {
		override(feedback)
	}

	if f.opts.DryRun {
		f.nextID++
		feedback.ID = f.nextID
		log.Printf("[dry-run] CreateFeedback: user=%d rating=%d", feedback.UserID, feedback.Rating)
		return feedback, nil
	}

	if err := f.db.Create(feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}
