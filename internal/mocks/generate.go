// Package mocks provides mock implementations for testing the verification pipeline.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the port interfaces in internal/core. To regenerate mocks after interface
// changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	repo := mocks.NewMockJobRepository(ctrl)
//	repo.EXPECT().Get(gomock.Any(), "u1", "r1").Return(job, nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
// This creates MockJobRepository with methods: Get, Put, Update.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/target/ekyc-verify/internal/core JobRepository

// Generate mock for FaceComparer interface from internal/core package.
// This creates MockFaceComparer with methods: CompareFaces.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=face_comparer_mock.go github.com/target/ekyc-verify/internal/core FaceComparer

// Generate mock for TextDetector interface from internal/core package.
// This creates MockTextDetector with methods: DetectText.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=text_detector_mock.go github.com/target/ekyc-verify/internal/core TextDetector
