package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/codehive/chat/internal/config"
	"github.com/codehive/chat/internal/model"
	"github.com/codehive/chat/internal/pkg/database"
	"github.com/codehive/chat/internal/pkg/utils"
	"github.com/codehive/chat/internal/repository"
	"go.uber.org/zap"
)

func main() {
	log.Println("Starting database seed...")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to MongoDB
	logger := zap.NewNop()
	db, err := database.NewMongo(&cfg.Mongo, logger)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer database.Close(db, logger)

	ctx := context.Background()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Seed users
	log.Println("Creating users...")
	users := []struct {
		username    string
		email       string
		password    string
		displayName string
	}{
		{"alice", "alice@example.com", "password123", "Alice Chen"},
		{"bob", "bob@example.com", "password123", "Bob Wang"},
		{"charlie", "charlie@example.com", "password123", "Charlie Lin"},
		{"diana", "diana@example.com", "password123", "Diana Wu"},
		{"evan", "evan@example.com", "password123", "Evan Lee"},
	}

	var createdUsers []*model.User
	for _, u := range users {
		hash, _ := utils.HashPassword(u.password)
		user := &model.User{
			Username:     u.username,
			Email:        u.email,
			PasswordHash: hash,
			DisplayName:  u.displayName,
			Status:       model.UserStatusOffline,
		}

		if err := userRepo.Create(ctx, user); err != nil {
			log.Printf("User %s might already exist: %v", u.username, err)
			existing, _ := userRepo.GetByUsername(ctx, u.username)
			if existing != nil {
				createdUsers = append(createdUsers, existing)
			}
		} else {
			createdUsers = append(createdUsers, user)
			log.Printf("Created user: %s", u.username)
		}
	}

	if len(createdUsers) < 2 {
		log.Println("Not enough users, skipping room and message creation")
		return
	}

	// Seed rooms
	log.Println("Creating rooms...")
	rooms := []struct {
		name        string
		description string
		roomType    model.RoomType
		ownerIndex  int
	}{
		{"General", "General discussion", model.RoomTypePublic, 0},
		{"Tech Talk", "All things engineering", model.RoomTypePublic, 1},
		{"Random", "Off-topic chatter", model.RoomTypePublic, 2},
		{"Team Alpha", "Alpha team only", model.RoomTypePrivate, 0},
	}

	var createdRooms []*model.Room
	for _, r := range rooms {
		if r.ownerIndex >= len(createdUsers) {
			continue
		}

		owner := createdUsers[r.ownerIndex]
		room := &model.Room{
			Name:        r.name,
			Description: r.description,
			Type:        r.roomType,
			OwnerID:     owner.ID.Hex(),
			MaxMembers:  100,
			IsJoinable:  true,
			JoinMode:    model.JoinModeOpen,
			Members: []model.RoomMember{{
				UserID:      owner.ID.Hex(),
				Role:        model.MemberRoleOwner,
				Permissions: model.DefaultPermissions(model.MemberRoleOwner),
				JoinedAt:    time.Now(),
			}},
		}

		if err := roomRepo.Create(ctx, room); err != nil {
			log.Printf("Room %s might already exist: %v", r.name, err)
		} else {
			createdRooms = append(createdRooms, room)
			log.Printf("Created room: %s", r.name)
		}
	}

	// Add members to rooms
	log.Println("Adding members to rooms...")
	for _, room := range createdRooms {
		for i, user := range createdUsers {
			if user.ID.Hex() == room.OwnerID {
				continue // Already a member as owner
			}

			if i%2 == 0 || room.Type == model.RoomTypePublic {
				member := model.RoomMember{
					UserID:      user.ID.Hex(),
					Role:        model.MemberRoleMember,
					Permissions: model.DefaultPermissions(model.MemberRoleMember),
					JoinedAt:    time.Now(),
				}
				if err := roomRepo.AddMember(ctx, room.ID.Hex(), member); err == nil {
					log.Printf("Added %s to room %s", user.Username, room.Name)
				}
			}
		}
	}

	// Seed messages
	log.Println("Creating messages...")
	messages := []struct {
		roomIndex int
		userIndex int
		content   string
	}{
		{0, 0, "Welcome to the chat!"},
		{0, 1, "Hello everyone!"},
		{0, 2, "Nice to meet you all 👋"},
		{0, 3, "Great room, glad to be here"},
		{1, 1, "Anyone trying new tech lately?"},
		{1, 0, "I've been learning Go"},
		{1, 2, "Goroutines make concurrency so much easier"},
		{2, 2, "Lovely weather today"},
		{2, 4, "Any plans for the weekend?"},
	}

	for _, m := range messages {
		if m.roomIndex >= len(createdRooms) || m.userIndex >= len(createdUsers) {
			continue
		}

		room := createdRooms[m.roomIndex]
		msg := &model.Message{
			RoomID:   room.ID.Hex(),
			SenderID: createdUsers[m.userIndex].ID.Hex(),
			Content:  m.content,
			Type:     model.MessageTypeText,
			Kind:     model.MessageKindStandard,
			Status:   model.DeliveryStatusDelivered,
		}

		if err := messageRepo.Create(ctx, msg); err != nil {
			log.Printf("Failed to create message: %v", err)
		} else {
			_ = roomRepo.IncrementMessageCount(ctx, room.ID.Hex())
			log.Printf("Created message in %s", room.Name)
		}

		// Small delay to ensure different timestamps
		time.Sleep(10 * time.Millisecond)
	}

	log.Println("Seed completed successfully!")
	fmt.Println("\n--- Test Accounts ---")
	fmt.Println("All accounts have password: password123")
	for _, u := range users {
		fmt.Printf("Username: %s, Email: %s\n", u.username, u.email)
	}
}
