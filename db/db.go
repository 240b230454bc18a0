package db

import (
	"context"
	"log"
	"os"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	CategoryCollection *mongo.Collection
	ProductCollection  *mongo.Collection
	OrderCollection    *mongo.Collection
	UserCollection     *mongo.Collection
	Client             *mongo.Client
)

// Initialize MongoDB connection
func Init() {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "agromartdb"
	}

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	Client, err = mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	CategoryCollection = Client.Database(dbName).Collection("categories")
	ProductCollection = Client.Database(dbName).Collection("products")
	OrderCollection = Client.Database(dbName).Collection("orders")
	UserCollection = Client.Database(dbName).Collection("users")
}
