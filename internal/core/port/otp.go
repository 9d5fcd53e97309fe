package port

import "context"

// OTPIssuer sends and redeems the one time passwords used to authenticate patrons.
type OTPIssuer interface {
	Issue(ctx context.Context, email string, ip string) error
	Redeem(ctx context.Context, email string, ip string, otp string) (bool, error)
}
