// Command seed provisions a development database with one user per role
// and a couple of projects so the API is usable right after a fresh
// migration. Existing rows are left untouched.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/docflow-api/internal/models"
	"github.com/noah-isme/docflow-api/internal/repository"
	"github.com/noah-isme/docflow-api/pkg/config"
	"github.com/noah-isme/docflow-api/pkg/database"
)

func main() {
	var (
		password string
		timeout  time.Duration
	)

	flag.StringVar(&password, "password", "changeme123", "Initial password for every seeded user")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall seeding timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	users := repository.NewUserRepository(db)
	projects := repository.NewProjectRepository(db)

	seedUsers := []models.User{
		{Email: "director@docflow.local", FullName: "Site Director", Role: models.RoleDirector, Department: models.DepartmentDirection},
		{Email: "coordinator@docflow.local", FullName: "Project Coordinator", Role: models.RoleCoordinator, Department: models.DepartmentDirection},
		{Email: "legal@docflow.local", FullName: "Legal Reviewer", Role: models.RoleReviewer, Department: models.DepartmentLegal},
		{Email: "procurement@docflow.local", FullName: "Procurement Reviewer", Role: models.RoleReviewer, Department: models.DepartmentProcurement},
		{Email: "hr@docflow.local", FullName: "HR Reviewer", Role: models.RoleReviewer, Department: models.DepartmentHumanResources},
	}

	seedProjects := []models.Project{
		{Code: "PRJ-001", Name: "Riverside Office Park", Status: models.ProjectActive, Department: models.DepartmentDirection},
		{Code: "PRJ-002", Name: "Northern Logistics Hub", Status: models.ProjectActive, Department: models.DepartmentDirection},
	}

	seeded := 0
	for _, user := range seedUsers {
		_, err := users.FindByEmail(ctx, user.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			log.Fatalf("failed to look up user %s: %v", user.Email, err)
		}

		user.PasswordHash = string(hash)
		user.Active = true
		if err := users.Create(ctx, &user); err != nil {
			log.Fatalf("failed to seed user %s: %v", user.Email, err)
		}
		seeded++
	}

	for _, project := range seedProjects {
		exists, err := projectExists(ctx, db, project.Code)
		if err != nil {
			log.Fatalf("failed to look up project %s: %v", project.Code, err)
		}
		if exists {
			continue
		}

		if err := projects.Create(ctx, &project); err != nil {
			log.Fatalf("failed to seed project %s: %v", project.Code, err)
		}
		seeded++
	}

	fmt.Printf("Seeding complete, %d new rows\n", seeded)
}

func projectExists(ctx context.Context, db *sqlx.DB, code string) (bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM projects WHERE code = $1`, code); err != nil {
		return false, err
	}
	return count > 0, nil
}
