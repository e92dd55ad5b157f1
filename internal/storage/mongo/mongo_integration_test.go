//go:build integration

package mongo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	mongodrv "go.mongodb.org/mongo-driver/mongo"

	"healthdir/internal/domain"
	mongorepo "healthdir/internal/storage/mongo"
	"healthdir/internal/storage/storetest"
)

func startMongo(t *testing.T) *mongodrv.Client {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "7.0",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mongo: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	uri := fmt.Sprintf("mongodb://127.0.0.1:%s", resource.GetPort("27017/tcp"))
	var client *mongodrv.Client
	if err := pool.Retry(func() error {
		var e error
		client, e = mongorepo.Connect(context.Background(), uri)
		return e
	}); err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

func TestRepo_Mongo(t *testing.T) {
	client := startMongo(t)
	ctx := context.Background()

	storetest.Run(t, func(t *testing.T) domain.Repository {
		// a fresh database per subtest keeps them independent
		db := client.Database("healthdir_" + uuid.NewString()[:8])
		t.Cleanup(func() { _ = db.Drop(context.Background()) })
		repo := mongorepo.New(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			t.Fatalf("EnsureIndexes: %v", err)
		}
		return repo
	})
}

func TestRepo_Mongo_RejectsMalformedReferences(t *testing.T) {
	client := startMongo(t)
	ctx := context.Background()
	repo := mongorepo.New(client.Database("healthdir_refs"))

	h := domain.Hospital{Name: "A", Slug: "a", Treatments: []string{"not-an-object-id"}}
	err := repo.CreateHospital(ctx, &h)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want validation error, got %v", err)
	}

	if _, err := repo.GetHospital(ctx, "not-an-object-id"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("malformed id should be not found")
	}
	if err := repo.DeleteHospital(ctx, "not-an-object-id"); err != nil {
		t.Fatalf("delete of malformed id: %v", err)
	}
}
