package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"communitybot/entity"
	"communitybot/internal/config"
)

const collectionUsers = "users"

// MongoDB stores user profiles. Counters never live here; they belong to
// the state store. Connections are opened per operation.
type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

// RegisterUser creates the profile on first contact. Re-registration is a
// no-op that refreshes the username; the token assigned on insert is kept.
func (m *MongoDB) RegisterUser(user *entity.User) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "telegram_id", Value: user.TelegramId}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "telegram_username", Value: user.TelegramUsername},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "telegram_id", Value: user.TelegramId},
			{Key: "token", Value: uuid.NewString()},
			{Key: "registered_at", Value: time.Now().UTC()},
		}},
	}
	opts := options.Update().SetUpsert(true)
	_, err = collection.UpdateOne(m.ctx, filter, update, opts)
	return err
}

func (m *MongoDB) GetUserByToken(token string) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "token", Value: token}}
	var user entity.User
	err = collection.FindOne(m.ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("token not registered")
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &user, nil
}

func (m *MongoDB) GetUserById(telegramId int64) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "telegram_id", Value: telegramId}}
	var user entity.User
	err = collection.FindOne(m.ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &user, nil
}
