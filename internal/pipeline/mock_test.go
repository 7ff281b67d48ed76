package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/fda-apps/internal/model"
	"github.com/sells-group/fda-apps/internal/store"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Append(ctx context.Context, companies []model.Applicant, apps []model.Application, links []model.Link) (*store.AppendResult, error) {
	args := m.Called(ctx, companies, apps, links)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.AppendResult), args.Error(1)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
