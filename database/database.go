package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rpupo63/blogicum/config"
	"github.com/rpupo63/blogicum/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

type Database struct {
	db           *gorm.DB
	categoryRepo *CategoryRepo
	locationRepo *LocationRepo
	postRepo     *PostRepo
	commentRepo  *CommentRepo
	userRepo     *UserRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:           db,
		categoryRepo: NewCategoryRepo(db),
		locationRepo: NewLocationRepo(db),
		postRepo:     NewPostRepo(db),
		commentRepo:  NewCommentRepo(db),
		userRepo:     NewUserRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) CategoryRepo() *CategoryRepo {
	return d.categoryRepo
}

func (d Database) LocationRepo() *LocationRepo {
	return d.locationRepo
}

func (d Database) PostRepo() *PostRepo {
	return d.postRepo
}

func (d Database) CommentRepo() *CommentRepo {
	return d.commentRepo
}

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

// Migrate creates or updates the schema for every blog model.
func (d Database) Migrate(ctx context.Context) error {
	return d.db.WithContext(ctx).AutoMigrate(models.All()...)
}

// Ping checks that the primary is reachable.
func (d Database) Ping(ctx context.Context) error {
	var result int
	return d.db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error
}

// UTCNow is used as the GORM clock so that stored timestamps compare
// consistently across drivers.
func UTCNow() time.Time {
	return time.Now().UTC()
}

// Open connects to the database selected by DB_TYPE and registers read
// replicas from DB_REPLICA_DSNS when present.
func Open(c map[string]string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Duration(config.GetInt(c, "DB_SLOW_QUERY_MS", 500)) * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	gormConfig := &gorm.Config{
		PrepareStmt:    false,
		Logger:         newLogger,
		NowFunc:        UTCNow,
		TranslateError: true,
	}

	dbType := strings.ToLower(config.GetString(c, "DB_TYPE", "postgres"))
	switch dbType {
	case "postgres", "supa":
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  PostgresDSN(c),
			PreferSimpleProtocol: true,
		}), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if replicas := config.GetList(c, "DB_REPLICA_DSNS"); len(replicas) > 0 {
			dialectors := make([]gorm.Dialector, 0, len(replicas))
			for _, dsn := range replicas {
				dialectors = append(dialectors, postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}))
			}
			if err := db.Use(dbresolver.Register(dbresolver.Config{
				Replicas: dialectors,
				Policy:   dbresolver.RandomPolicy{},
			})); err != nil {
				return nil, fmt.Errorf("register read replicas: %w", err)
			}
		}
		return db, nil
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(SQLiteDSN(config.GetString(c, "SQLITE_PATH", "blogicum.db"))), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
}

// PostgresDSN prefers DATABASE_URL and otherwise assembles a keyword DSN.
func PostgresDSN(c map[string]string) string {
	if url := config.GetString(c, "DATABASE_URL", ""); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		config.GetString(c, "DB_HOST", "localhost"),
		config.GetString(c, "DB_USER", "blogicum"),
		config.GetString(c, "DB_PASSWORD", ""),
		config.GetString(c, "DB_NAME", "blogicum"),
		config.GetString(c, "DB_PORT", "5432"),
		config.GetString(c, "DB_SSLMODE", "disable"),
	)
}

// SQLiteDSN turns on foreign key enforcement, which SQLite leaves off by default.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}
