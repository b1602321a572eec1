package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"thriftgram/pkg/config"
	"thriftgram/pkg/database"
	"thriftgram/pkg/eco"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/models"
	"thriftgram/pkg/s3"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type seedUser struct {
	email    string
	username string
	password string
	bio      string
}

type seedItem struct {
	title     string
	price     string
	size      string
	condition models.ItemCondition
	category  eco.Category
}

var testUsers = []seedUser{
	{"alice@test.com", "alice_thrifts", "password123", "Vintage denim hunter"},
	{"bob@test.com", "bob_resells", "password123", "Sneakers and streetwear"},
	{"charlie@test.com", "charlie_closet", "password123", ""},
	{"diana@test.com", "diana_finds", "password123", "Accessories from the 90s"},
	{"eve@test.com", "eve_wardrobe", "password123", ""},
}

var catalogue = []seedItem{
	{"Levi's 501 jeans", "35.00", "W32", models.ConditionGood, eco.CategoryClothing},
	{"Wool overcoat", "80.00", "M", models.ConditionLikeNew, eco.CategoryClothing},
	{"Leather ankle boots", "55.00", "39", models.ConditionGood, eco.CategoryShoes},
	{"Canvas high-tops", "25.00", "42", models.ConditionFair, eco.CategoryShoes},
	{"Silk scarf", "18.50", "", models.ConditionNew, eco.CategoryAccessories},
	{"Corduroy jacket", "45.00", "L", models.ConditionGood, eco.CategoryClothing},
	{"Beaded handbag", "30.00", "", models.ConditionLikeNew, eco.CategoryAccessories},
}

func main() {
	var (
		perUser    int
		withImages bool
	)
	flag.IntVar(&perUser, "items", 3, "Items to list per seeded user")
	flag.BoolVar(&withImages, "upload-images", false, "Download placeholder photos and upload them to S3")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.NewWithConfig(cfg.LogLevel, cfg.LogFormat).With("service", "seed")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	s := &seeder{
		db:     db,
		ledger: eco.NewLedger(eco.NewGormRepository(db), log),
		log:    log,
		http:   &http.Client{Timeout: 30 * time.Second},
	}

	if withImages {
		s.s3, err = s3.NewClient(cfg)
		if err != nil {
			log.Warn("Failed to create S3 client: %v (using remote placeholder URLs)", err)
			s.s3 = nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.run(ctx, perUser); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

type seeder struct {
	db     *gorm.DB
	ledger *eco.Ledger
	s3     *s3.Client
	http   *http.Client
	log    *logger.Logger
}

func (s *seeder) run(ctx context.Context, perUser int) error {
	userIDs := make([]string, 0, len(testUsers))
	for _, u := range testUsers {
		id, created, err := s.ensureUser(ctx, u)
		if err != nil {
			return err
		}
		userIDs = append(userIDs, id)
		if !created {
			s.log.Info("User %s already exists, skipping listings", u.username)
			continue
		}
		if u.bio != "" {
			if _, err := s.ledger.AwardProfileCompletion(ctx, id); err != nil {
				s.log.Error("Failed to award profile completion to %s: %v", u.username, err)
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(3)
		for i := 0; i < perUser; i++ {
			i := i
			item := catalogue[(len(userIDs)+i)%len(catalogue)]
			g.Go(func() error {
				return s.listItem(gctx, id, u.username, item, i)
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("failed to list items for %s: %w", u.username, err)
		}
	}

	return s.followEachOther(ctx, userIDs)
}

func (s *seeder) ensureUser(ctx context.Context, u seedUser) (string, bool, error) {
	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ? OR username = ?", u.email, u.username).Take(&existing).Error
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
	if err != nil {
		return "", false, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:    u.email,
		Username: u.username,
		Password: string(hashed),
		Bio:      u.bio,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return "", false, fmt.Errorf("failed to create user %s: %w", u.username, err)
	}

	s.log.Info("Created user: %s (%s)", user.Username, user.Email)
	return user.ID, true, nil
}

func (s *seeder) listItem(ctx context.Context, sellerID, username string, spec seedItem, index int) error {
	imageURL := fmt.Sprintf("https://picsum.photos/seed/%s-%d/600/800", username, index)
	if s.s3 != nil {
		uploaded, err := s.uploadPlaceholder(ctx, imageURL, fmt.Sprintf("items/%s/seed_%d.jpg", sellerID, index))
		if err != nil {
			s.log.Warn("Failed to upload placeholder for %s: %v", username, err)
		} else {
			imageURL = uploaded
		}
	}

	item := &models.Item{
		SellerID:    sellerID,
		Title:       spec.title,
		Description: fmt.Sprintf("%s from %s's closet", spec.title, username),
		Price:       decimal.RequireFromString(spec.price),
		Size:        spec.size,
		Condition:   spec.condition,
		Category:    string(spec.category),
		Images:      []models.ItemImage{{ImageURL: imageURL, Position: 0}},
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create item %q: %w", spec.title, err)
	}

	if _, err := s.ledger.AwardListing(ctx, sellerID, item.ID, item.Title, item.Category); err != nil {
		s.log.Error("Failed to award listing points for %s: %v", item.ID, err)
	}

	s.log.Info("Listed %s for %s at %s", item.Title, username, item.Price.StringFixed(2))
	return nil
}

func (s *seeder) uploadPlaceholder(ctx context.Context, sourceURL, key string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch placeholder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("placeholder source returned status %d", resp.StatusCode)
	}

	return s.s3.UploadFile(ctx, key, io.LimitReader(resp.Body, 10<<20), "image/jpeg")
}

func (s *seeder) followEachOther(ctx context.Context, userIDs []string) error {
	created := 0
	for i := range userIDs {
		// everyone follows the next two users around the ring
		for _, step := range []int{1, 2} {
			j := (i + step) % len(userIDs)
			if i == j {
				continue
			}
			follow := &models.Follow{FollowerID: userIDs[i], FollowingID: userIDs[j]}
			res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(follow)
			if res.Error != nil {
				return fmt.Errorf("failed to create follow: %w", res.Error)
			}
			created += int(res.RowsAffected)
		}
	}
	s.log.Info("Created %d test follows", created)
	return nil
}
