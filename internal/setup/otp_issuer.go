package setup

import (
	"context"
	"net/url"

	"github.com/archivelabs/lenny/internal/adapter/otp"
	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

var getOTPIssuerFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.OTPIssuer, error) {
	baseURL, err := url.Parse(conf.Auth.OTPServer)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse otp server url '%s'", conf.Auth.OTPServer)
	}

	return otp.NewIssuer(baseURL, conf.Auth.OTPTimeout), nil
})
