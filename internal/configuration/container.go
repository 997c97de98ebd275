package configuration

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/db"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/handler"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/hub"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/service"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/storage"
)

// Container owns every long-lived dependency and wires the layers together.
type Container struct {
	Config   *Config
	Logger   *zap.Logger
	Database *mongo.Database
	Hub      *hub.Hub

	AuthService    service.AuthService
	ChatService    service.ChatService
	MessageService service.MessageService
	UserService    service.UserService
	NearbyService  service.NearbyService

	AuthHandler    handler.AuthHandler
	ChatHandler    handler.ChatHandler
	MessageHandler handler.MessageHandler
	UserHandler    handler.UserHandler
	MonitorHandler handler.MonitorHandler

	bridge *hub.Bridge
}

// logReconciler records summary drift for offline repair. A background
// sweeper can later recompute previews and counters for the flagged chats.
type logReconciler struct {
	logger *zap.Logger
}

func (r *logReconciler) MarkDirty(chatID string) {
	r.logger.Warn("chat summary marked dirty", zap.String("chatId", chatID))
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	database, err := db.OpenConnection(config.Mongo.Uri, config.Mongo.Database)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureIndexes(context.Background(), database); err != nil {
		return nil, err
	}

	userRepo := repo.NewUserRepository(db.NewRepository[model.User](database, db.UsersCollection), logger)
	chatRepo := repo.NewChatRepository(db.NewRepository[model.Chat](database, db.ChatsCollection), logger)
	messageRepo := repo.NewMessageRepository(db.NewRepository[model.Message](database, db.MessagesCollection), logger)

	socketHub := hub.NewHub(userRepo, logger)

	var uploader storage.Uploader
	if config.Storage.CloudinaryURL != "" {
		uploader, err = storage.NewCloudinaryUploader(config.Storage.CloudinaryURL)
		if err != nil {
			return nil, err
		}
	}

	tokenTTL := time.Duration(config.Auth.TokenTTLHours) * time.Hour
	authService := service.NewAuthService(userRepo, config.Auth.JwtKey, tokenTTL)
	chatService := service.NewChatService(chatRepo, messageRepo, userRepo, logger)
	messageService := service.NewMessageService(
		chatRepo, messageRepo, userRepo,
		socketHub, &logReconciler{logger: logger}, logger,
	)
	userService := service.NewUserService(userRepo, messageRepo, uploader, logger)
	nearbyService := service.NewNearbyService(userRepo, logger)

	socketHub.AttachRouter(service.NewInboundRouter(messageService, chatRepo, socketHub, logger))

	container := &Container{
		Config:   config,
		Logger:   logger,
		Database: database,
		Hub:      socketHub,

		AuthService:    authService,
		ChatService:    chatService,
		MessageService: messageService,
		UserService:    userService,
		NearbyService:  nearbyService,

		AuthHandler:    handler.NewAuthHandler(authService),
		ChatHandler:    handler.NewChatHandler(chatService),
		MessageHandler: handler.NewMessageHandler(chatService, messageService),
		UserHandler:    handler.NewUserHandler(userService, nearbyService),
		MonitorHandler: handler.NewMonitorHandler(database, socketHub),
	}

	if config.Redis.Addr != "" {
		container.bridge = hub.NewBridge(config.Redis.Addr, config.Redis.Channel, logger)
		socketHub.AttachBridge(container.bridge)
	}

	return container, nil
}

func (c *Container) Close() {
	c.Hub.Stop()
	if c.bridge != nil {
		c.bridge.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Database.Client().Disconnect(ctx); err != nil {
		c.Logger.Error("mongo disconnect failed", zap.Error(err))
	}

	_ = c.Logger.Sync()
}
