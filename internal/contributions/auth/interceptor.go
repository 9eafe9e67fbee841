// Package auth authenticates the clients allowed to change contribution
// data. Writes over gRPC and HTTP carry an HS256 Bearer token issued by the
// authentication service; the token subject travels in the request context.
package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Interceptor requires a valid token on the methods it protects and lets
// every other method through unauthenticated.
type Interceptor struct {
	secret    string
	protected map[string]struct{}
}

// NewAuthInterceptor protects the listed full method names with tokens
// signed by jwtSecret.
func NewAuthInterceptor(jwtSecret string, protectedMethods ...string) *Interceptor {
	protected := make(map[string]struct{}, len(protectedMethods))
	for _, m := range protectedMethods {
		protected[m] = struct{}{}
	}
	return &Interceptor{secret: jwtSecret, protected: protected}
}

// Protects reports whether fullMethod requires a token.
func (i *Interceptor) Protects(fullMethod string) bool {
	_, ok := i.protected[fullMethod]
	return ok
}

func (i *Interceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !i.Protects(info.FullMethod) {
			return handler(ctx, req)
		}
		ctx, err := i.authenticate(ctx)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func (i *Interceptor) authenticate(ctx context.Context) (context.Context, error) {
	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			header = values[0]
		}
	}

	token, err := bearerToken(header)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}
	claims, err := ParseToken(token, i.secret)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
	}
	return WithSubject(ctx, claims.Subject), nil
}
