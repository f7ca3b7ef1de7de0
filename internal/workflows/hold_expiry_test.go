package workflows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/activities"
)

type HoldExpiryTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *HoldExpiryTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterActivityWithOptions(activities.NewActivities(nil).ExpireHold, activity.RegisterOptions{Name: "ExpireHold"})
}

func (s *HoldExpiryTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func TestHoldExpiryTestSuite(t *testing.T) {
	suite.Run(t, new(HoldExpiryTestSuite))
}

func (s *HoldExpiryTestSuite) TestTimerFires_ReleasesHold() {
	input := HoldExpiryInput{
		BookingID: "booking-1",
		ExpiresAt: s.env.Now().Add(15 * time.Minute),
	}

	s.env.OnActivity("ExpireHold", mock.Anything, activities.ExpireHoldInput{BookingID: "booking-1"}).
		Return(&activities.ExpireHoldResult{Released: true}, nil)

	s.env.ExecuteWorkflow(HoldExpiryWorkflow, input)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result *HoldExpiryResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.True(result.Expired)
	s.Equal("expired", result.Reason)
}

func (s *HoldExpiryTestSuite) TestSettleSignal_SkipsExpiry() {
	input := HoldExpiryInput{
		BookingID: "booking-1",
		ExpiresAt: s.env.Now().Add(15 * time.Minute),
	}

	// No ExpireHold expectation: a settled hold must not hit the store.
	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(SignalHoldSettled, nil)
	}, time.Minute)

	s.env.ExecuteWorkflow(HoldExpiryWorkflow, input)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result *HoldExpiryResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.False(result.Expired)
	s.Equal("settled", result.Reason)
}

func (s *HoldExpiryTestSuite) TestTimerFires_AlreadySettled() {
	input := HoldExpiryInput{
		BookingID: "booking-1",
		ExpiresAt: s.env.Now().Add(15 * time.Minute),
	}

	s.env.OnActivity("ExpireHold", mock.Anything, mock.Anything).
		Return(&activities.ExpireHoldResult{Released: false}, nil)

	s.env.ExecuteWorkflow(HoldExpiryWorkflow, input)

	s.True(s.env.IsWorkflowCompleted())

	var result *HoldExpiryResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.False(result.Expired)
	s.Equal("already settled", result.Reason)
}

func (s *HoldExpiryTestSuite) TestDeadlineInThePast_ExpiresImmediately() {
	input := HoldExpiryInput{
		BookingID: "booking-1",
		ExpiresAt: s.env.Now().Add(-time.Minute),
	}

	s.env.OnActivity("ExpireHold", mock.Anything, mock.Anything).
		Return(&activities.ExpireHoldResult{Released: true}, nil)

	s.env.ExecuteWorkflow(HoldExpiryWorkflow, input)

	s.True(s.env.IsWorkflowCompleted())

	var result *HoldExpiryResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.True(result.Expired)
}
