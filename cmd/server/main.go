package main

import (
	"log"
	"net/http"

	"cabride-backend/internal/config"
	"cabride-backend/internal/database"
	"cabride-backend/internal/handlers"
	"cabride-backend/internal/middleware"
	"cabride-backend/internal/models"
	"cabride-backend/internal/services"
	"cabride-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚕 CABRIDE BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	log.Println("📂 Loading environment variables...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Printf("❌ FATAL ERROR: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Println("✅ Configuration loaded")

	// Connect to database
	log.Println("🔌 Connecting to database...")
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Database connection failed")
		log.Printf("   Error: %v", err)
		log.Println("   This is usually caused by:")
		log.Println("   1. Wrong DATABASE_URL format")
		log.Println("   2. PostgreSQL service is down")
		log.Println("   3. Network connectivity issue")
		log.Println("   4. Invalid credentials")
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	defer db.Close()
	log.Println("✅ Database connection established")

	// Run migrations
	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Database migrations failed")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Println("✅ Database migrations completed")

	// Seed roles, permissions, and the bootstrap admin
	log.Println("🌱 Seeding roles and permissions...")
	if err := database.SeedRoles(db); err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Role seeding failed")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Println("✅ Roles and permissions seeded")

	if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Admin seeding failed")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Println("✅ Admin account ready")

	// Initialize Firebase Cloud Messaging
	// Supports both file path and base64-encoded credentials (for cloud deployments)
	var fcmService *services.FCMService
	if cfg.FCMCredentialsBase64 != "" {
		fcmService, err = services.NewFCMServiceFromBase64(cfg.FCMCredentialsBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		}
	} else {
		fcmService, err = services.NewFCMService(cfg.FCMCredentialsFile)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from file")
		}
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Authentication routes (no auth required)
	r.Post("/api/auth/login", handlers.Login(db, cfg.JWTSecret))
	r.Post("/api/users/register", handlers.RegisterUser(db))
	r.Post("/api/drivers/register", handlers.RegisterDriver(db))

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(wsHub, db, cfg.JWTSecret))

	// API routes (all require authentication)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(db, cfg.JWTSecret))

		r.Post("/auth/logout", handlers.Logout())

		// Users
		r.Get("/users/me", handlers.GetMe(db))
		r.Get("/users", handlers.GetUsers(db))
		r.Get("/users/{id}", handlers.GetUser(db))
		r.Put("/users/{id}", handlers.UpdateUser(db))
		r.Patch("/users/{id}", handlers.UpdateUser(db))
		r.Delete("/users/{id}", handlers.DeleteUser(db))
		r.Post("/users/fcm-token", handlers.RegisterFCMToken(db))

		// Drivers
		r.Get("/drivers/me", handlers.GetMyDriver(db))
		r.Get("/drivers/me/vehicles", handlers.MyVehicles(db))
		r.Get("/drivers/user/{userId}", handlers.DriverByUser(db))
		r.Get("/drivers", handlers.GetDrivers(db))
		r.Get("/drivers/{id}", handlers.GetDriver(db))
		r.Get("/drivers/{id}/dashboard", handlers.DriverDashboard(db))
		r.Get("/drivers/{id}/payments", handlers.PaymentsByDriver(db))
		r.Put("/drivers/{id}", handlers.UpdateDriver(db))
		r.Patch("/drivers/{id}", handlers.UpdateDriver(db))
		r.Delete("/drivers/{id}", handlers.DeleteDriver(db))
		r.Get("/drivers/{id}/vehicles", handlers.VehiclesByDriver(db))
		r.Get("/vehicles/driver/{id}", handlers.VehiclesByDriver(db))

		// Bookings — static segments registered before the {id} routes
		r.Post("/bookings", handlers.CreateBooking(db))
		r.Get("/bookings/available", handlers.GetAvailableBookings(db))
		r.Get("/bookings/ongoing", handlers.OngoingBookings(db))
		r.Get("/bookings/completed", handlers.CompletedBookings(db))
		r.Get("/bookings/me", handlers.MyBookings(db))
		r.Get("/bookings", handlers.GetBookings(db))
		r.Get("/bookings/user/{userID}", handlers.BookingsByUser(db))
		r.Get("/bookings/driver/{driverID}", handlers.BookingsByDriver(db))
		r.Get("/bookings/driver/{driverID}/accepted", handlers.AcceptedBookingsForDriver(db))
		r.Get("/bookings/{id}", handlers.GetBooking(db))
		r.Put("/bookings/{id}/accept", handlers.AcceptBooking(db, wsHub, fcmService))
		r.Put("/bookings/{id}/confirm", handlers.ConfirmBooking(db, wsHub, fcmService))
		r.Put("/bookings/{id}/cancel", handlers.CancelBooking(db, wsHub))
		r.Put("/bookings/{id}/start", handlers.StartRide(db, wsHub, fcmService))
		r.Put("/bookings/{id}/end", handlers.EndRide(db, wsHub))
		r.Get("/bookings/{id}/payment", handlers.GetBookingPayment(db))
		r.Put("/bookings/{id}/pay", handlers.PayBooking(db, wsHub))

		// Rides
		r.Post("/rides", handlers.CreateRide(db))
		r.Get("/rides", handlers.GetRides(db))
		r.Get("/rides/user/{userID}", handlers.RidesByUser(db))
		r.Get("/rides/driver/{driverID}", handlers.RidesByDriver(db))
		r.Get("/rides/{id}", handlers.GetRide(db))
		r.Put("/rides/{id}/feedback", handlers.UpdateRideFeedback(db))
		r.Delete("/rides/{id}", handlers.DeleteRide(db))

		// Payments
		r.Get("/payments/driver-payments", handlers.DriverPayments(db))
		r.Get("/payments/me/pending", handlers.MyPaymentsByStatus(db, models.PaymentStatusPending))
		r.Get("/payments/me/completed", handlers.MyPaymentsByStatus(db, models.PaymentStatusCompleted))
		r.Get("/payments/date-range", handlers.PaymentsByDateRange(db))
		r.Get("/payments/status/{status}", handlers.PaymentsByStatus(db))
		r.Get("/payments", handlers.GetPayments(db))
		r.Get("/payments/{id}", handlers.GetPayment(db))
		r.Put("/payments/{id}/complete", handlers.CompletePayment(db, wsHub))
		r.Put("/payments/{id}/status", handlers.UpdatePaymentStatus(db))
		r.Delete("/payments/{id}", handlers.DeletePayment(db))

		// Vehicles
		r.Post("/vehicles", handlers.CreateVehicle(db))
		r.Get("/vehicles", handlers.GetVehicles(db))
		r.Get("/vehicles/{id}", handlers.GetVehicle(db))
		r.Put("/vehicles/{id}", handlers.UpdateVehicle(db))
		r.Patch("/vehicles/{id}", handlers.UpdateVehicle(db))
		r.Delete("/vehicles/{id}", handlers.DeleteVehicle(db))

		// Complaints
		r.Post("/complaints", handlers.CreateComplaint(db))
		r.Get("/complaints", handlers.GetComplaints(db))
		r.Get("/complaints/user/{userId}", handlers.ComplaintsByUser(db))
		r.Get("/complaints/{id}", handlers.GetComplaint(db))
		r.Put("/complaints/{id}/resolve", handlers.ResolveComplaint(db))
		r.Delete("/complaints/{id}", handlers.DeleteComplaint(db))

		// RBAC management
		r.Post("/roles", handlers.CreateRole(db))
		r.Get("/roles", handlers.GetRoles(db))
		r.Get("/roles/{id}/permissions", handlers.GetRolePermissions(db))
		r.Post("/roles/{id}/permissions", handlers.GrantPermission(db))
		r.Delete("/roles/{id}/permissions/{permissionId}", handlers.RevokePermission(db))
		r.Delete("/roles/{id}", handlers.DeleteRole(db))
		r.Post("/permissions", handlers.CreatePermission(db))
		r.Get("/permissions", handlers.GetPermissions(db))
		r.Delete("/permissions/{id}", handlers.DeletePermission(db))
	})

	// Start server
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Printf("🚀 Server listening on port %s", cfg.Port)
	log.Println("═══════════════════════════════════════════════════════════════════")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
