package channel

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/config"
)

// New builds the configured provider chain: provider, then rate throttle,
// then the per-send timeout around both.
func New(ctx context.Context, cfg config.ChannelConfig, sendTimeout time.Duration, log *zap.Logger) (Sender, error) {
	var base Sender
	switch cfg.Provider {
	case config.ProviderLog, "":
		base = NewLogSender(log)
	case config.ProviderSNS, config.ProviderSES, config.ProviderAWS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		router := &Router{}
		if cfg.Provider != config.ProviderSES {
			router.SMS = NewSNSSender(sns.NewFromConfig(awsCfg), cfg.SMSSenderID)
		}
		if cfg.Provider != config.ProviderSNS {
			router.Email = NewSESSender(ses.NewFromConfig(awsCfg), cfg.FromEmail, cfg.EmailSubject)
		}
		base = router
	default:
		return nil, fmt.Errorf("unknown channel provider %q", cfg.Provider)
	}

	log.Info("message channel ready",
		zap.String("provider", cfg.Provider),
		zap.Float64("rate_per_sec", cfg.RatePerSecond),
		zap.Duration("send_timeout", sendTimeout),
	)
	return WithTimeout(NewThrottled(base, cfg.RatePerSecond, cfg.Burst), sendTimeout), nil
}
