package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection       *mongo.Collection
	ClassesCollection    *mongo.Collection
	CreditTxCollection   *mongo.Collection
	EarningsCollection   *mongo.Collection
	EarningTxCollection  *mongo.Collection
	BookingsCollection   *mongo.Collection
	Client               *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "courtdb"
	}

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	Client, err = mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	UserCollection = Client.Database(dbName).Collection("users")
	ClassesCollection = Client.Database(dbName).Collection("classes")
	CreditTxCollection = Client.Database(dbName).Collection("credit_transactions")
	EarningsCollection = Client.Database(dbName).Collection("coach_earnings")
	EarningTxCollection = Client.Database(dbName).Collection("earning_transactions")
	BookingsCollection = Client.Database(dbName).Collection("bookings")
}
