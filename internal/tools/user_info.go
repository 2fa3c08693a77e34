package tools

import (
	"context"
	"encoding/json"

	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/logging"
	"github.com/user/mockshop/internal/userdir"
)

// UserInfoToolName is the name the model uses to call UserInfoTool
const UserInfoToolName = "get_user_info"

// UserInfoInput is the argument object of get_user_info
type UserInfoInput struct {
	UserID int `json:"user_id" jsonschema_description:"Numeric id of the customer whose account details are requested."`
}

var userInfoSchema = GenerateSchema[UserInfoInput]()

// UserInfoTool returns the username and email of the chatting user
type UserInfoTool struct {
	directory userdir.Directory
	logger    *logging.Logger
}

// NewUserInfoTool creates the get_user_info tool
func NewUserInfoTool(directory userdir.Directory, logger *logging.Logger) *UserInfoTool {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &UserInfoTool{directory: directory, logger: logger.Named("tools")}
}

// Name returns the tool name
func (t *UserInfoTool) Name() string {
	return UserInfoToolName
}

// Description returns the tool description
func (t *UserInfoTool) Description() string {
	return "Get the account details (username and email) of the customer you are talking to."
}

// Parameters returns the JSON schema for the tool parameters
func (t *UserInfoTool) Parameters() map[string]interface{} {
	return userInfoSchema
}

// Execute looks up the invocation's user. The user_id argument from the
// model is only compared against it, never used for the lookup.
func (t *UserInfoTool) Execute(ctx context.Context, inv Invocation) (interface{}, error) {
	var in UserInfoInput
	if inv.Arguments != "" {
		if err := json.Unmarshal([]byte(inv.Arguments), &in); err != nil {
			t.logger.Warn("Ignoring malformed get_user_info arguments",
				logging.String("arguments", inv.Arguments),
				logging.Error(err),
			)
		}
	}
	if in.UserID != 0 && in.UserID != inv.UserID {
		t.logger.Warn("Model requested a different user, using the authenticated one",
			logging.Int("requested_user_id", in.UserID),
			logging.Int("user_id", inv.UserID),
		)
	}

	info, err := t.directory.LookupUser(ctx, inv.UserID)
	if err != nil {
		return nil, apperrors.NewToolExecutionError(UserInfoToolName, err)
	}
	return info, nil
}
