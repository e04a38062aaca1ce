package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/config"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const demoPassword = "password123"

type demoListing struct {
	title        string
	propertyType model.PropertyType
	listingType  model.ListingType
	price        float64
	address      string
	city         string
	bedrooms     int
	bathrooms    int
	area         float64
}

var listings = []demoListing{
	{"Sunny two-bedroom near Han River", model.PropertyTypeApartment, model.ListingTypeRent, 650, "18 Bach Dang", "Da Nang", 2, 1, 68},
	{"Family house with garden", model.PropertyTypeHouse, model.ListingTypeSale, 185000, "42 Le Loi", "Hue", 4, 3, 210},
	{"City-view condo", model.PropertyTypeCondo, model.ListingTypeSale, 142000, "7 Nguyen Hue", "Ho Chi Minh City", 2, 2, 85},
	{"Corner shop unit", model.PropertyTypeCommercial, model.ListingTypeRent, 1400, "95 Tran Phu", "Nha Trang", 0, 1, 120},
	{"Quiet studio in the old quarter", model.PropertyTypeApartment, model.ListingTypeRent, 420, "3 Hang Bac", "Hanoi", 1, 1, 35},
}

func main() {
	cfg, _ := config.Load()
	logger.Init(cfg.App.Env)
	defer logger.Sync()
	ctx := context.Background()

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to connect to database", zap.Error(err))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal(ctx, "Failed to hash password", zap.Error(err))
	}

	admin := seedUser(ctx, db, "admin@homenest.local", "HomeNest Admin", model.RoleAdmin, string(hashed))
	agents := []*model.User{
		seedUser(ctx, db, "agent1@homenest.local", "Linh Tran", model.RoleAgent, string(hashed)),
		seedUser(ctx, db, "agent2@homenest.local", "Minh Pham", model.RoleAgent, string(hashed)),
	}
	clients := make([]*model.User, 0, 5)
	for i := 1; i <= 5; i++ {
		email := fmt.Sprintf("client%d@homenest.local", i)
		clients = append(clients, seedUser(ctx, db, email, fmt.Sprintf("Client %d", i), model.RoleClient, string(hashed)))
	}
	if admin == nil || agents[0] == nil || agents[1] == nil {
		logger.Fatal(ctx, "Seeding aborted: core accounts missing")
	}

	properties := make([]*model.Property, 0, len(listings))
	for i, l := range listings {
		if p := seedProperty(ctx, db, agents[i%len(agents)].ID, l); p != nil {
			properties = append(properties, p)
		}
	}

	// One upcoming viewing per listing, each on its own day so agents never overlap
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	for i, p := range properties {
		client := clients[i%len(clients)]
		if client == nil {
			continue
		}
		seedAppointment(ctx, db, p, client.ID, start.Add(time.Duration(i)*24*time.Hour))
	}

	logger.Info(ctx, "Seeding completed",
		zap.Int("properties", len(properties)),
		zap.String("password", demoPassword),
	)
}

func seedUser(ctx context.Context, db *gorm.DB, email, name string, role model.Role, hashed string) *model.User {
	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error(ctx, "Failed to look up user", zap.String("email", email), zap.Error(err))
		return nil
	}

	now := time.Now().UTC()
	user := model.User{
		ID:              uuid.New(),
		Name:            name,
		Email:           email,
		Phone:           "0905000000",
		Password:        hashed,
		Role:            role,
		AuthProvider:    model.AuthProviderEmail,
		EmailVerifiedAt: &now,
		IsActive:        true,
		Avatar:          "https://api.dicebear.com/7.x/initials/svg?seed=" + uuid.NewString(),
	}
	if err := db.Create(&user).Error; err != nil {
		logger.Error(ctx, "Failed to create user", zap.String("email", email), zap.Error(err))
		return nil
	}
	logger.Info(ctx, "Created user", zap.String("email", email), zap.String("role", string(role)))
	return &user
}

func seedProperty(ctx context.Context, db *gorm.DB, agentID uuid.UUID, l demoListing) *model.Property {
	var existing model.Property
	if err := db.Where("title = ? AND agent_id = ?", l.title, agentID).First(&existing).Error; err == nil {
		return &existing
	}

	p := model.Property{
		AgentID:      agentID,
		Title:        l.title,
		Description:  l.title + " in " + l.city,
		PropertyType: l.propertyType,
		ListingType:  l.listingType,
		Price:        l.price,
		Address:      l.address,
		City:         l.city,
		Bedrooms:     l.bedrooms,
		Bathrooms:    l.bathrooms,
		AreaSqm:      l.area,
		Status:       model.PropertyStatusAvailable,
	}
	if err := db.Create(&p).Error; err != nil {
		logger.Error(ctx, "Failed to create property", zap.String("title", l.title), zap.Error(err))
		return nil
	}
	return &p
}

func seedAppointment(ctx context.Context, db *gorm.DB, p *model.Property, clientID uuid.UUID, at time.Time) {
	var count int64
	db.Model(&model.Appointment{}).Where("property_id = ? AND client_id = ?", p.ID, clientID).Count(&count)
	if count > 0 {
		return
	}

	notes := "Seeded viewing"
	appt := model.Appointment{
		PropertyID:  p.ID,
		AgentID:     p.AgentID,
		ClientID:    clientID,
		ScheduledAt: at,
		Status:      model.AppointmentScheduled,
		Notes:       &notes,
	}
	if err := db.Create(&appt).Error; err != nil {
		logger.Error(ctx, "Failed to create appointment", zap.String("property_id", p.ID.String()), zap.Error(err))
	}
}
