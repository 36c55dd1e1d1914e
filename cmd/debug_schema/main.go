// Command debug_schema inspects the live database schema without touching it.
package main

import (
	"fmt"
	"log"

	"nutribunda/internal/config"
	"nutribunda/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	// Inspect only; never apply schema from a debug tool.
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatal(err)
	}

	var columns []struct {
		ColumnName string `gorm:"column:column_name"`
		DataType   string `gorm:"column:data_type"`
	}
	for _, table := range []string{"food_logs", "food_meal_logs", "user_preferences"} {
		db.Raw("SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ?", table).Scan(&columns)
		fmt.Printf("Columns in %s:\n", table)
		for _, c := range columns {
			fmt.Printf(" - %s: %s\n", c.ColumnName, c.DataType)
		}
	}

	var constraints []struct {
		Conname string `gorm:"column:conname"`
		Def     string `gorm:"column:def"`
	}
	db.Raw("SELECT conname, pg_get_constraintdef(oid) as def FROM pg_constraint WHERE conrelid = 'food_logs'::regclass").Scan(&constraints)
	fmt.Println("Constraints on food_logs:")
	for _, c := range constraints {
		fmt.Printf(" - %s: %s\n", c.Conname, c.Def)
	}

	// The menu-origin FK has to null out when a menu is deleted.
	var def string
	db.Raw("SELECT pg_get_constraintdef(oid) FROM pg_constraint WHERE conname = 'fk_food_logs_source_menu'").Scan(&def)
	if def == "" {
		fmt.Println("Constraint fk_food_logs_source_menu: MISSING")
	} else {
		fmt.Printf("Constraint fk_food_logs_source_menu: %s\n", def)
	}

	var tables []string
	db.Raw("SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'").Scan(&tables)
	fmt.Println("Tables in public schema:")
	for _, t := range tables {
		fmt.Printf(" - %s\n", t)
	}
}
