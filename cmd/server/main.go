package main

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"arenahub/config"
	"arenahub/db"
	"arenahub/internal/arena"
	"arenahub/services"
	"arenahub/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load the configuration from the specified YAML file
	cfg, err := config.LoadConfig("./config/config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Match state in memory is the source of truth; persistence and
	// Redis are advisory, so the server starts without them.
	if err := db.ConnectMongoDB(cfg.Database.URI); err != nil {
		log.Printf("MongoDB unavailable, continuing without persistence: %v", err)
	} else {
		log.Println("Connected to MongoDB")
	}

	if cfg.Redis.Addr != "" {
		if err := arena.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.Printf("Redis unavailable, continuing without vote limits and event streams: %v", err)
		} else {
			log.Println("Connected to Redis")
		}
	}

	var oracle services.ScoringOracle
	if gemini, err := services.NewGeminiOracle(cfg.Gemini.ApiKey); err != nil {
		log.Printf("Gemini unavailable, scoring falls back to neutral: %v", err)
	} else {
		oracle = gemini
	}

	store := db.NewMongoStore()
	registry := services.NewMatchRegistry()
	engine := services.NewEngine(
		registry,
		oracle,
		store,
		store,
		websocket.GetHub(),
		time.Duration(cfg.Game.EvictionGraceSeconds)*time.Second,
	)

	engine.SetOracleTimeout(time.Duration(cfg.Game.OracleTimeoutSeconds) * time.Second)

	clock := services.NewClock(engine, time.Second)
	go clock.Run()

	matchmaker := services.NewMatchmaker()

	router := setupRouter(engine, matchmaker, store)
	port := strconv.Itoa(cfg.Server.Port)
	log.Printf("Game engine running on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(engine *services.Engine, matchmaker *services.Matchmaker, store *db.MongoStore) *gin.Engine {
	router := gin.Default()

	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "matches": engine.Registry().Len()})
	})

	router.GET("/matches/:id", func(c *gin.Context) {
		m, ok := engine.Registry().Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
			return
		}
		c.JSON(http.StatusOK, m.State())
	})

	router.GET("/topics/random", func(c *gin.Context) {
		c.JSON(http.StatusOK, store.RandomTopic(c.Request.Context()))
	})

	router.GET("/ws/arena", websocket.ArenaHandler(engine))
	router.GET("/ws/queue", websocket.QueueHandler(matchmaker, store.UserRating))

	return router
}
