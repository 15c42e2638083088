package adapter

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// IsPermissionDenied reports whether err is an authorization failure from a
// Google Cloud API, either over gRPC (Firestore) or HTTP (Cloud Storage)
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusUnauthorized
	}

	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.PermissionDenied || s.Code() == codes.Unauthenticated
	}

	return false
}

// IsNotFound reports whether err means the requested object does not exist
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}

	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.NotFound
	}

	return false
}
