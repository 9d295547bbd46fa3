package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/accounts"
	"github.com/rpupo63/consulting-site-backend/api"
	"github.com/rpupo63/consulting-site-backend/config"
	"github.com/rpupo63/consulting-site-backend/content"
	"github.com/rpupo63/consulting-site-backend/database"
	"github.com/rpupo63/consulting-site-backend/models"
	"github.com/rpupo63/consulting-site-backend/services"
)

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	c := config.New()
	setupLogger(c)
	if envErr != nil {
		log.Warn().Err(envErr).Msg("no .env file loaded, using the environment")
	}
	log.Info().Msg("Initializing app...")

	if err := run(c); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func run(c map[string]string) error {
	ctx := context.Background()

	if prefix := config.GetString(c, "SSM_PARAMETER_PREFIX", ""); prefix != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("loading AWS config: %w", err)
		}
		n, err := config.MergeSSM(ctx, c, ssm.NewFromConfig(awsCfg), prefix)
		if err != nil {
			return err
		}
		log.Info().Int("parameters", n).Str("prefix", prefix).Msg("merged SSM parameters")
		setupLogger(c)
	}

	db, err := database.Open(ctx, c)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer db.Close()

	// Schema tooling runs against the gorm handle and exits.
	if local, ok := db.Backend.(*database.Local); ok {
		if config.GetBool(c, "GENERATE_MODELS", false) {
			log.Info().Msg("Generating models and query helpers...")
			return models.GenerateModels(local.DB(), config.GetString(c, "GENERATE_OUT_PATH", "./query"), log.Logger, os.Stdout)
		}
		if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
			log.Info().Msg("Generating column mismatch report...")
			return models.PrintColumnMismatchReport(local.DB(), os.Stdout)
		}
	}

	samples, err := content.LoadSamples(config.GetString(c, "SAMPLE_CONTENT_PATH", ""))
	if err != nil {
		return err
	}
	contentService := content.NewService(db,
		content.WithTimeout(config.GetDuration(c, "STORAGE_TIMEOUT_SECONDS", time.Second, 5)),
		content.WithSamples(samples),
	)

	tokens, err := accounts.NewTokens(config.GetString(c, "JWT_SECRET", ""), config.GetDuration(c, "JWT_TTL_HOURS", time.Hour, 24))
	if err != nil {
		return fmt.Errorf("JWT_SECRET: %w", err)
	}
	accountService := accounts.NewService(db, tokens)

	if email := config.GetString(c, "ADMIN_EMAIL", ""); email != "" {
		created, err := accountService.EnsureAdmin(ctx, config.GetString(c, "ADMIN_NAME", ""), email, config.GetString(c, "ADMIN_PASSWORD", ""))
		if err != nil {
			return fmt.Errorf("creating admin account: %w", err)
		}
		if created {
			log.Info().Str("email", email).Msg("created admin account")
		}
	}

	deps := api.Dependencies{
		Content:           contentService,
		Accounts:          accountService,
		Storage:           db,
		ContactRecipients: config.GetStrings(c, "CONTACT_RECIPIENTS"),
	}

	mailer := services.NewMailer(services.MailerConfig{
		APIKey: config.GetString(c, "RESEND_API_KEY", ""),
		From:   config.GetString(c, "RESEND_FROM_EMAIL", ""),
	})
	if mailer.Configured() {
		deps.Contact = mailer
	} else {
		log.Warn().Msg("RESEND_API_KEY or RESEND_FROM_EMAIL not set, contact form disabled")
	}

	if bucket := config.GetString(c, "MEDIA_BUCKET", ""); bucket != "" {
		uploader, err := newMediaUploader(ctx, c, bucket)
		if err != nil {
			return err
		}
		deps.Media = uploader
	}

	errChannel := make(chan error)

	server, err := api.NewServer(c, deps)
	if err != nil {
		return fmt.Errorf("initializing server: %w", err)
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
	return nil
}

func newMediaUploader(ctx context.Context, c map[string]string, bucket string) (*services.MediaUploader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region := config.GetString(c, "AWS_REGION", ""); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return services.NewMediaUploader(s3.NewFromConfig(awsCfg), bucket, awsCfg.Region, config.GetString(c, "MEDIA_PUBLIC_BASE_URL", ""))
}

// setupLogger configures the global zerolog logger from LOG_LEVEL and LOG_FORMAT.
func setupLogger(c map[string]string) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(c, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.GetString(c, "LOG_FORMAT", "") == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
