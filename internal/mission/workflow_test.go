package mission_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/mission"
)

func TestAvailableActions(t *testing.T) {
	o := newOrg()

	assigned := func(status mission.Status) *mission.Mission {
		return &mission.Mission{
			ID:                 uuid.New(),
			RequesterID:        o.requester.ID,
			AssignedApproverID: &o.chief.ID,
			Status:             status,
		}
	}

	tests := []struct {
		name    string
		actor   *actor.Actor
		mission *mission.Mission
		want    []mission.Action
	}{
		{
			name:    "owner of a draft",
			actor:   o.requester,
			mission: assigned(mission.StatusDraft),
			want:    []mission.Action{mission.ActionSubmit},
		},
		{
			name:    "assigned chief",
			actor:   o.chief,
			mission: assigned(mission.StatusPendingChief),
			want:    []mission.Action{mission.ActionApproveChief, mission.ActionReject},
		},
		{
			name:    "other chief may only reject",
			actor:   o.otherChief,
			mission: assigned(mission.StatusPendingChief),
			want:    []mission.Action{mission.ActionReject},
		},
		{
			name:    "admin at pending chief",
			actor:   o.admin,
			mission: assigned(mission.StatusPendingChief),
			want:    []mission.Action{mission.ActionApproveChief, mission.ActionReject},
		},
		{
			name:    "finance",
			actor:   o.finance,
			mission: assigned(mission.StatusValidatedChief),
			want:    []mission.Action{mission.ActionApproveFinance, mission.ActionReject},
		},
		{
			name:    "payment agent after approvals",
			actor:   o.agent,
			mission: assigned(mission.StatusValidatedCoordinator),
			want:    []mission.Action{mission.ActionRecordPayment, mission.ActionConfirmPayment},
		},
		{
			name:    "owner begins once paid",
			actor:   o.requester,
			mission: assigned(mission.StatusAdvancePaid),
			want:    []mission.Action{mission.ActionBegin},
		},
		{
			name:    "payment agent may reconcile before the mission begins",
			actor:   o.agent,
			mission: assigned(mission.StatusAdvancePaid),
			want:    []mission.Action{mission.ActionReconcileDocuments},
		},
		{
			name:    "payment agent in progress",
			actor:   o.agent,
			mission: assigned(mission.StatusInProgress),
			want:    []mission.Action{mission.ActionReconcileDocuments, mission.ActionClose},
		},
		{
			name:  "payment agent after reconciliation",
			actor: o.agent,
			mission: func() *mission.Mission {
				m := assigned(mission.StatusInProgress)
				m.DocumentsReconciled = true
				return m
			}(),
			want: []mission.Action{mission.ActionClose},
		},
		{
			name:    "nobody acts on a closed mission",
			actor:   o.admin,
			mission: assigned(mission.StatusClosed),
			want:    nil,
		},
		{
			name:    "requester waits",
			actor:   o.requester,
			mission: assigned(mission.StatusPendingChief),
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mission.AvailableActions(tt.actor, tt.mission))
		})
	}

	assert.Nil(t, mission.AvailableActions(nil, assigned(mission.StatusDraft)))
}

func TestParseAction(t *testing.T) {
	a, ok := mission.ParseAction("approve_finance")
	assert.True(t, ok)
	assert.Equal(t, mission.ActionApproveFinance, a)

	_, ok = mission.ParseAction("approve")
	assert.False(t, ok)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, mission.KindNotFound, mission.KindOf(mission.ErrNotFound))
	assert.Equal(t, mission.KindInternal, mission.KindOf(errors.New("boom")))

	wrapped := errors.Join(errors.New("context"), &mission.Error{Kind: mission.KindPrecondition, Message: "x"})
	assert.Equal(t, mission.KindPrecondition, mission.KindOf(wrapped))
	assert.ErrorIs(t, wrapped, mission.ErrPrecondition)
}

func TestService_Transition_BeginError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mission.NewMockRepository(ctrl)
	actors := mission.NewMockActorProvider(ctrl)
	svc := mission.NewService(repo, actors)

	repo.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("connection refused"))

	_, err := svc.Transition(context.Background(), &actor.Actor{ID: uuid.New()}, uuid.New(), mission.ActionSubmit, mission.Payload{})

	require.Error(t, err)
	assert.Equal(t, mission.KindInternal, mission.KindOf(err))
}

func TestService_Transition_NotFoundRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mission.NewMockRepository(ctrl)
	tx := mission.NewMockTx(ctrl)
	svc := mission.NewService(repo, mission.NewMockActorProvider(ctrl))

	id := uuid.New()

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().LockMission(gomock.Any(), id).Return(nil, mission.ErrNotFound)
	tx.EXPECT().Rollback().Return(nil)

	_, err := svc.Transition(context.Background(), &actor.Actor{ID: uuid.New()}, id, mission.ActionSubmit, mission.Payload{})

	assert.ErrorIs(t, err, mission.ErrNotFound)
}

func TestService_RecordPayment_LedgerWriteFailureDoesNotCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mission.NewMockRepository(ctrl)
	tx := mission.NewMockTx(ctrl)
	notifier := mission.NewMockNotifier(ctrl)
	svc := mission.NewService(repo, mission.NewMockActorProvider(ctrl), mission.WithNotifier(notifier))

	agent := &actor.Actor{ID: uuid.New(), Roles: []actor.Role{actor.RolePaymentAgent}}
	m := &mission.Mission{ID: uuid.New(), RequesterID: uuid.New(), Status: mission.StatusValidatedCoordinator}

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().LockMission(gomock.Any(), m.ID).Return(m, nil)
	tx.EXPECT().FindAdvance(gomock.Any(), m.ID, mission.OperationPayment).Return(nil, nil)
	tx.EXPECT().CreateAdvance(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	tx.EXPECT().Rollback().Return(nil)

	_, err := svc.RecordPayment(context.Background(), agent, m.ID, mission.PaymentParams{
		Amount:        decimal.NewFromInt(20000),
		OperationDate: time.Now(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestService_Transition_ActivityAndCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mission.NewMockRepository(ctrl)
	tx := mission.NewMockTx(ctrl)
	actors := mission.NewMockActorProvider(ctrl)
	notifier := mission.NewMockNotifier(ctrl)
	svc := mission.NewService(repo, actors, mission.WithNotifier(notifier))

	chief := uuid.New()
	requester := &actor.Actor{ID: uuid.New(), Roles: []actor.Role{actor.RoleRequester}}
	m := &mission.Mission{ID: uuid.New(), RequesterID: requester.ID, Status: mission.StatusDraft}

	gomock.InOrder(
		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil),
		tx.EXPECT().LockMission(gomock.Any(), m.ID).Return(m, nil),
		actors.EXPECT().ReportsTo(gomock.Any(), requester.ID).Return(&chief, nil),
		tx.EXPECT().SaveMission(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, saved *mission.Mission) error {
			assert.Equal(t, mission.StatusPendingChief, saved.Status)
			assert.Equal(t, chief, *saved.AssignedApproverID)
			return nil
		}),
		tx.EXPECT().AppendActivity(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *mission.Activity) error {
			assert.Equal(t, mission.ActionSubmit, a.Action)
			assert.Equal(t, requester.ID, a.ActorID)
			return nil
		}),
		tx.EXPECT().Commit().Return(nil),
		notifier.EXPECT().MissionChanged(gomock.Any(), gomock.Any()).Return(nil),
		tx.EXPECT().Rollback().Return(nil),
	)

	got, err := svc.Transition(context.Background(), requester, m.ID, mission.ActionSubmit, mission.Payload{})
	require.NoError(t, err)

	assert.Equal(t, mission.StatusPendingChief, got.Status)
	assert.Equal(t, mission.StatusDraft, m.Status, "the loaded row is not mutated in place")
}
