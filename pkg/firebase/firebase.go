// Package firebase arranca el SDK de administración y entrega los clientes que usa la tienda.
package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/andrescris/storefront/pkg/config"
	"google.golang.org/api/option"
)

// Clients agrupa las conexiones abiertas contra el proyecto de Firebase.
type Clients struct {
	App        *fb.App
	Firestore  *firestore.Client
	Auth       *auth.Client
	Bucket     *gcs.BucketHandle
	BucketName string
	APIKey     string
}

func clientOptions(cfg *config.Configuration) ([]option.ClientOption, error) {
	if cfg.FirebaseCredentialsPath == "" {
		// credenciales por defecto del entorno (GOOGLE_APPLICATION_CREDENTIALS, metadata server)
		return nil, nil
	}
	if _, err := os.Stat(cfg.FirebaseCredentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found: %s", cfg.FirebaseCredentialsPath)
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.FirebaseCredentialsPath)}, nil
}

// Init initializes the Firebase app and the Firestore, Auth and Storage clients.
func Init(ctx context.Context, cfg *config.Configuration) (*Clients, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	bucketName := cfg.FirebaseStorageBucket
	if bucketName == "" {
		bucketName = cfg.FirebaseProjectID + ".appspot.com"
	}

	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: cfg.FirebaseProjectID, StorageBucket: bucketName}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to get Firebase Auth client: %w", err)
	}

	storageClient, err := app.Storage(ctx)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to get Firebase Storage client: %w", err)
	}
	bucket, err := storageClient.Bucket(bucketName)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucketName, err)
	}

	return &Clients{
		App:        app,
		Firestore:  fs,
		Auth:       authClient,
		Bucket:     bucket,
		BucketName: bucketName,
		APIKey:     cfg.FirebaseAPIKey,
	}, nil
}

func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
