package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// getTestConfig returns a minimal config for testing
func getTestConfig() *config.Config {
	return &config.Config{
		DefaultAdminPassword: "", // Use random password in tests
	}
}

func testProfile(name string) *models.LineProfile {
	return &models.LineProfile{
		LineUserID:  "U" + uuid.New().String()[:8],
		DisplayName: name,
		PictureURL:  "https://profile.line-scdn.net/" + name,
	}
}

// TestStoreWithSQLite tests store operations with SQLite
func TestStoreWithSQLite(t *testing.T) {
	testStoreOperations(t, "sqlite", nil)
}

// TestStoreWithPostgres tests store operations with PostgreSQL
func TestStoreWithPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Skipping PostgreSQL test: Docker not available (panic: %v)", r)
		}
	}()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: Docker not available (%v)", err)
		return
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	testStoreOperations(t, "postgres", pgContainer)
}

// createFreshStore creates a new store instance for test isolation
// For SQLite, each call creates a fresh :memory: database
// For PostgreSQL, each call creates a uniquely-named database in the container
func createFreshStore(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) *Store {
	t.Helper()

	var dsn string
	switch driver {
	case "sqlite":
		dsn = ":memory:"
	case "postgres":
		dbName := "test_" + uuid.New().String()[:8]

		ctx := context.Background()

		createDBCmd := fmt.Sprintf("CREATE DATABASE %s", dbName)
		_, _, err := pgContainer.Exec(
			ctx,
			[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", createDBCmd},
		)
		require.NoError(t, err)

		host, err := pgContainer.Host(ctx)
		require.NoError(t, err)
		port, err := pgContainer.MappedPort(ctx, "5432")
		require.NoError(t, err)
		dsn = fmt.Sprintf(
			"host=%s port=%s user=testuser password=testpass dbname=%s sslmode=disable",
			host, port.Port(), dbName,
		)

		t.Cleanup(func() {
			dropDBCmd := fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)
			_, _, _ = pgContainer.Exec(
				context.Background(),
				[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", dropDBCmd},
			)
		})
	default:
		t.Fatalf("unsupported driver: %s", driver)
	}

	store, err := New(context.Background(), driver, dsn, getTestConfig())
	require.NoError(t, err)
	require.NotNil(t, store)

	return store
}

func createTestUser(t *testing.T, store *Store, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         "user",
	}
	require.NoError(t, store.CreateUser(user))
	return user
}

// testStoreOperations runs the store suite against one driver.
// Each subtest creates a fresh store instance for isolation.
func testStoreOperations(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) {
	t.Run("CreateAndGetUser", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		user := createTestUser(t, store, "alice")

		retrieved, err := store.GetUserByUsername("alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, retrieved.ID)
		assert.Equal(t, models.DefaultAvatar, retrieved.Avatar)
		assert.False(t, retrieved.IsLineBound)

		byID, err := store.GetUserByID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)
	})

	t.Run("GetUserNotFound", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		_, err := store.GetUserByUsername("nobody")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		createTestUser(t, store, "bob")
		err := store.CreateUser(&models.User{
			ID:           uuid.New().String(),
			Username:     "bob",
			PasswordHash: "x",
			Role:         "user",
		})
		assert.ErrorIs(t, err, ErrUsernameConflict)
	})

	t.Run("CreateLinkedLineUser", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		user := createTestUser(t, store, "carol")
		profile := testProfile("Carol")

		lu, err := store.CreateLinkedLineUser(profile.LineUserID, user.ID, profile)
		require.NoError(t, err)
		require.NotNil(t, lu.UserID)
		assert.Equal(t, user.ID, *lu.UserID)
		assert.True(t, lu.IsLinked())

		// mirror fields land on the user in the same transaction
		updated, err := store.GetUserByID(user.ID)
		require.NoError(t, err)
		assert.True(t, updated.IsLineBound)
		require.NotNil(t, updated.LineID)
		assert.Equal(t, profile.LineUserID, *updated.LineID)
		assert.Equal(t, "Carol", updated.Name)
		assert.Equal(t, profile.PictureURL, updated.Avatar)
		assert.NotNil(t, updated.LineBindTime)
	})

	t.Run("LinkConflictOnActiveRow", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		first := createTestUser(t, store, "dave")
		second := createTestUser(t, store, "erin")
		profile := testProfile("Dave")

		_, err := store.CreateLinkedLineUser(profile.LineUserID, first.ID, profile)
		require.NoError(t, err)

		_, err = store.CreateLinkedLineUser(profile.LineUserID, second.ID, profile)
		assert.ErrorIs(t, err, ErrLineAccountConflict)
	})

	t.Run("SoftUnlinkAndRevive", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		user := createTestUser(t, store, "frank")
		profile := testProfile("Frank")

		lu, err := store.CreateLinkedLineUser(profile.LineUserID, user.ID, profile)
		require.NoError(t, err)

		require.NoError(t, store.SoftUnlinkLineUser(lu))

		// active lookup misses, latest lookup still finds the row
		_, err = store.FindActiveLineUserByLineID(profile.LineUserID)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		latest, err := store.FindLatestLineUserByLineID(profile.LineUserID)
		require.NoError(t, err)
		assert.True(t, latest.IsDeleted)
		assert.Nil(t, latest.UserID)

		// user mirror fields cleared
		cleared, err := store.GetUserByID(user.ID)
		require.NoError(t, err)
		assert.False(t, cleared.IsLineBound)
		assert.Nil(t, cleared.LineID)
		assert.Nil(t, cleared.LineBindTime)

		// rebinding revives the same row instead of inserting a new one
		profile.DisplayName = "Frank II"
		require.NoError(t, store.ReviveAndRelinkLineUser(latest, user.ID, profile))

		active, err := store.FindActiveLineUserByLineID(profile.LineUserID)
		require.NoError(t, err)
		assert.Equal(t, latest.ID, active.ID)
		assert.Equal(t, "Frank II", active.DisplayName)
		require.NotNil(t, active.UserID)
		assert.Equal(t, user.ID, *active.UserID)

		rebound, err := store.GetUserByID(user.ID)
		require.NoError(t, err)
		assert.True(t, rebound.IsLineBound)
	})

	t.Run("ReviveAfterUnlinkAllowsNewOwner", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		first := createTestUser(t, store, "grace")
		second := createTestUser(t, store, "heidi")
		profile := testProfile("Grace")

		lu, err := store.CreateLinkedLineUser(profile.LineUserID, first.ID, profile)
		require.NoError(t, err)
		require.NoError(t, store.SoftUnlinkLineUser(lu))

		latest, err := store.FindLatestLineUserByLineID(profile.LineUserID)
		require.NoError(t, err)
		require.NoError(t, store.ReviveAndRelinkLineUser(latest, second.ID, profile))

		active, err := store.FindActiveLineUserByLineID(profile.LineUserID)
		require.NoError(t, err)
		require.NotNil(t, active.UserID)
		assert.Equal(t, second.ID, *active.UserID)
	})

	t.Run("UnboundPlaceholderRow", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		profile := testProfile("Stranger")
		lu, err := store.CreateUnboundLineUser(profile.LineUserID, profile)
		require.NoError(t, err)
		assert.Nil(t, lu.UserID)
		assert.False(t, lu.IsLinked())

		found, err := store.FindActiveLineUserByLineID(profile.LineUserID)
		require.NoError(t, err)
		assert.Equal(t, lu.ID, found.ID)
	})

	t.Run("UpdateProfileSyncsBoundUser", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		user := createTestUser(t, store, "ivan")
		profile := testProfile("Ivan")

		lu, err := store.CreateLinkedLineUser(profile.LineUserID, user.ID, profile)
		require.NoError(t, err)

		profile.DisplayName = "Ivan Updated"
		profile.PictureURL = "https://profile.line-scdn.net/new"
		require.NoError(t, store.UpdateLineUserProfile(lu, profile))

		active, err := store.FindActiveLineUserByLineID(profile.LineUserID)
		require.NoError(t, err)
		assert.Equal(t, "Ivan Updated", active.DisplayName)
	})

	t.Run("MirrorFieldsPreserveUserEdits", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		user := createTestUser(t, store, "judy")
		// user already customized name and avatar before binding
		require.NoError(t, store.db.Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]any{
				"name":   "Judy Real",
				"avatar": "/media/custom.png",
			}).Error)

		profile := testProfile("JudyLine")
		_, err := store.CreateLinkedLineUser(profile.LineUserID, user.ID, profile)
		require.NoError(t, err)

		bound, err := store.GetUserByID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Judy Real", bound.Name)
		assert.Equal(t, "/media/custom.png", bound.Avatar)
	})

	t.Run("FindActiveByUserID", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		user := createTestUser(t, store, "kate")
		profile := testProfile("Kate")

		lu, err := store.CreateLinkedLineUser(profile.LineUserID, user.ID, profile)
		require.NoError(t, err)

		found, err := store.FindActiveLineUserByUserID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, lu.ID, found.ID)

		require.NoError(t, store.SoftUnlinkLineUser(found))
		_, err = store.FindActiveLineUserByUserID(user.ID)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("LineMessages", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		profile := testProfile("Mallory")
		lu, err := store.CreateUnboundLineUser(profile.LineUserID, profile)
		require.NoError(t, err)

		msg := &models.LineMessage{
			LineUserID: lu.ID,
			Message:    "hello",
			IsOutbound: false,
			Status:     models.MessageStatusDelivered,
		}
		require.NoError(t, store.CreateLineMessage(msg))
		require.NotEmpty(t, msg.ID)

		out := &models.LineMessage{
			LineUserID: lu.ID,
			Message:    "welcome",
			IsOutbound: true,
		}
		require.NoError(t, store.CreateLineMessage(out))
		assert.Equal(t, models.MessageStatusPending, out.Status)

		require.NoError(t, store.UpdateLineMessageStatus(out.ID, models.MessageStatusSent, ""))

		msgs, err := store.ListLineMessages(lu.ID, 10)
		require.NoError(t, err)
		assert.Len(t, msgs, 2)
	})

	t.Run("UpdateUserPassword", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		user := createTestUser(t, store, "nancy")
		hash, err := bcrypt.GenerateFromPassword([]byte("newpassword"), bcrypt.DefaultCost)
		require.NoError(t, err)

		require.NoError(t, store.UpdateUserPassword(user.ID, string(hash)))

		updated, err := store.GetUserByID(user.ID)
		require.NoError(t, err)
		assert.NoError(t,
			bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newpassword")))

		err = store.UpdateUserPassword(uuid.New().String(), string(hash))
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}
