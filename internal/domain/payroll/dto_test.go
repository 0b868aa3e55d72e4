package payroll

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonth_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Month
		wantErr bool
	}{
		{name: "number", input: `{"month": 3}`, want: time.March},
		{name: "quoted number", input: `{"month": "11"}`, want: time.November},
		{name: "full name", input: `{"month": "March"}`, want: time.March},
		{name: "short name", input: `{"month": "dec"}`, want: time.December},
		{name: "out of range", input: `{"month": 13}`, wantErr: true},
		{name: "garbage", input: `{"month": "Marchy"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CalculatePayrollRequest
			err := json.Unmarshal([]byte(tt.input), &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Month(req.Month))
		})
	}
}

func TestPayrollStatus_Transitions(t *testing.T) {
	assert.True(t, PayrollStatusDraft.CanTransitionTo(PayrollStatusPendingApproval))
	assert.True(t, PayrollStatusPendingApproval.CanTransitionTo(PayrollStatusApproved))
	assert.True(t, PayrollStatusPendingApproval.CanTransitionTo(PayrollStatusDraft))
	assert.True(t, PayrollStatusApproved.CanTransitionTo(PayrollStatusProcessed))

	assert.False(t, PayrollStatusDraft.CanTransitionTo(PayrollStatusApproved))
	assert.False(t, PayrollStatusApproved.CanTransitionTo(PayrollStatusDraft))
	assert.False(t, PayrollStatusProcessed.CanTransitionTo(PayrollStatusApproved))
	assert.True(t, PayrollStatusProcessed.IsFinal())
	assert.False(t, PayrollStatusPendingApproval.IsFinal())
}

func TestAddAdjustmentRequest_Validate(t *testing.T) {
	req := AddAdjustmentRequest{
		EmployeeID: "0190a5b2-7c1e-7a00-8000-000000000001",
		Month:      Month(time.April),
		Year:       2025,
		Type:       "bonus",
		Category:   "earning",
	}

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")

	req.Amount = decimal.NewFromInt(500)
	assert.NoError(t, req.Validate())
	assert.Equal(t, "BONUS", req.Type)
}
