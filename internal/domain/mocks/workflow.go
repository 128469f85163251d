// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"subsetcheck.dev/pkg/subsetcheck/internal/domain"
)

// MockWorkflow is a mock implementation of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

var _ domain.Workflow = (*MockWorkflow)(nil)

// Run provides a mock function with given fields: ctx, args.
func (_m *MockWorkflow) Run(ctx context.Context, args domain.RunArgs) error {
	ret := _m.Called(ctx, args)
	return ret.Error(0)
}

// List provides a mock function with given fields: ctx, args.
func (_m *MockWorkflow) List(ctx context.Context, args domain.ListArgs) error {
	ret := _m.Called(ctx, args)
	return ret.Error(0)
}

// Inspect provides a mock function with given fields: ctx, paths.
func (_m *MockWorkflow) Inspect(ctx context.Context, paths []string) error {
	ret := _m.Called(ctx, paths)
	return ret.Error(0)
}

// View provides a mock function with given fields: ctx, reportPath.
func (_m *MockWorkflow) View(ctx context.Context, reportPath string) error {
	ret := _m.Called(ctx, reportPath)
	return ret.Error(0)
}

// NewMockWorkflow creates a MockWorkflow whose expectations are asserted when
// the test ends.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	m := &MockWorkflow{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
