package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ActionType is the tag that selects an Action variant in stored JSON.
type ActionType string

const (
	ActionUpdateStatus     ActionType = "update_status"
	ActionAssignUser       ActionType = "assign_user"
	ActionCreateActivity   ActionType = "create_activity"
	ActionAutoConvert      ActionType = "auto_convert"
	ActionSendNotification ActionType = "send_notification"
	ActionUpdateField      ActionType = "update_field"
	ActionSendEmail        ActionType = "send_email"
)

var (
	ErrUnknownAction      = errors.New("unknown action type")
	ErrMissingActionField = errors.New("missing required action field")
)

// Action is a closed set of side effects a workflow may run. The unexported
// marker keeps implementations inside this package.
type Action interface {
	Type() ActionType
	Validate() error
	isAction()
}

func missingField(action ActionType, field string) error {
	return fmt.Errorf("%s: %w: %s", action, ErrMissingActionField, field)
}

type UpdateStatus struct {
	Status string `json:"status"`
}

func (UpdateStatus) Type() ActionType { return ActionUpdateStatus }
func (UpdateStatus) isAction()        {}

func (a UpdateStatus) Validate() error {
	if strings.TrimSpace(a.Status) == "" {
		return missingField(ActionUpdateStatus, "status")
	}

	return nil
}

type AssignUser struct {
	UserID UserID `json:"user_id"`
}

func (AssignUser) Type() ActionType { return ActionAssignUser }
func (AssignUser) isAction()        {}

func (a AssignUser) Validate() error {
	if strings.TrimSpace(string(a.UserID)) == "" {
		return missingField(ActionAssignUser, "user_id")
	}

	return nil
}

// CreateActivity accepts "description" as an alias of "summary" when decoded.
type CreateActivity struct {
	ActivityType string `json:"activity_type"`
	Summary      string `json:"summary,omitempty"`
}

func (CreateActivity) Type() ActionType { return ActionCreateActivity }
func (CreateActivity) isAction()        {}

func (a CreateActivity) Validate() error {
	if strings.TrimSpace(a.ActivityType) == "" {
		return missingField(ActionCreateActivity, "activity_type")
	}

	return nil
}

type AutoConvert struct{}

func (AutoConvert) Type() ActionType { return ActionAutoConvert }
func (AutoConvert) isAction()        {}
func (AutoConvert) Validate() error  { return nil }

type SendNotification struct {
	Message string `json:"message,omitempty"`
}

func (SendNotification) Type() ActionType { return ActionSendNotification }
func (SendNotification) isAction()        {}
func (SendNotification) Validate() error  { return nil }

type UpdateField struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (UpdateField) Type() ActionType { return ActionUpdateField }
func (UpdateField) isAction()        {}

func (a UpdateField) Validate() error {
	if strings.TrimSpace(a.Field) == "" {
		return missingField(ActionUpdateField, "field")
	}

	return nil
}

type SendEmail struct {
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message,omitempty"`
}

func (SendEmail) Type() ActionType { return ActionSendEmail }
func (SendEmail) isAction()        {}
func (SendEmail) Validate() error  { return nil }

// UnknownAction holds a stored action this build cannot run, either because
// its tag is unrecognised or because its payload does not decode. Raw is
// re-emitted unchanged on encode.
type UnknownAction struct {
	Kind ActionType
	Raw  json.RawMessage
	Err  error
}

func (a UnknownAction) Type() ActionType { return a.Kind }
func (UnknownAction) isAction()          {}

func (a UnknownAction) Validate() error {
	if a.Err != nil {
		return a.Err
	}

	return fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
}

// UserID accepts both JSON strings and numbers.
type UserID string

func (u *UserID) UnmarshalJSON(data []byte) error {
	var s string

	err := json.Unmarshal(data, &s)
	if err == nil {
		*u = UserID(s)

		return nil
	}

	var n json.Number

	err = json.Unmarshal(data, &n)
	if err != nil {
		return fmt.Errorf("user_id must be a string or a number: %w", err)
	}

	*u = UserID(n.String())

	return nil
}

// DecodeAction never fails: anything that cannot be decoded into a known
// variant comes back as an UnknownAction.
func DecodeAction(raw json.RawMessage) Action {
	var head struct {
		Type ActionType `json:"type"`
	}

	err := json.Unmarshal(raw, &head)
	if err != nil {
		return UnknownAction{Raw: raw, Err: fmt.Errorf("failed to decode action: %w", err)}
	}

	var action Action

	switch head.Type {
	case ActionUpdateStatus:
		action, err = decodeAs[UpdateStatus](raw)
	case ActionAssignUser:
		action, err = decodeAs[AssignUser](raw)
	case ActionCreateActivity:
		var v struct {
			CreateActivity

			Description string `json:"description"`
		}

		err = json.Unmarshal(raw, &v)
		if v.Summary == "" {
			v.Summary = v.Description
		}

		action = v.CreateActivity
	case ActionAutoConvert:
		action = AutoConvert{}
	case ActionSendNotification:
		action, err = decodeAs[SendNotification](raw)
	case ActionUpdateField:
		action, err = decodeAs[UpdateField](raw)
	case ActionSendEmail:
		action, err = decodeAs[SendEmail](raw)
	default:
		return UnknownAction{Kind: head.Type, Raw: raw}
	}

	if err != nil {
		return UnknownAction{Kind: head.Type, Raw: raw, Err: fmt.Errorf("failed to decode %s action: %w", head.Type, err)}
	}

	return action
}

func decodeAs[T Action](raw json.RawMessage) (Action, error) {
	var v T

	err := json.Unmarshal(raw, &v)

	return v, err
}

// EncodeAction writes the variant's fields together with its "type" tag.
func EncodeAction(action Action) ([]byte, error) {
	type tag struct {
		Type ActionType `json:"type"`
	}

	switch a := action.(type) {
	case UpdateStatus:
		return json.Marshal(struct {
			tag
			UpdateStatus
		}{tag{a.Type()}, a})
	case AssignUser:
		return json.Marshal(struct {
			tag
			AssignUser
		}{tag{a.Type()}, a})
	case CreateActivity:
		return json.Marshal(struct {
			tag
			CreateActivity
		}{tag{a.Type()}, a})
	case AutoConvert:
		return json.Marshal(tag{a.Type()})
	case SendNotification:
		return json.Marshal(struct {
			tag
			SendNotification
		}{tag{a.Type()}, a})
	case UpdateField:
		return json.Marshal(struct {
			tag
			UpdateField
		}{tag{a.Type()}, a})
	case SendEmail:
		return json.Marshal(struct {
			tag
			SendEmail
		}{tag{a.Type()}, a})
	case UnknownAction:
		if len(a.Raw) > 0 {
			return a.Raw, nil
		}

		return json.Marshal(tag{a.Kind})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
}

// Actions is an ordered action list with a per-element JSON codec.
type Actions []Action

func (a Actions) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(a))

	for _, action := range a {
		raw, err := EncodeAction(action)
		if err != nil {
			return nil, err
		}

		raws = append(raws, raw)
	}

	return json.Marshal(raws)
}

func (a *Actions) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage

	err := json.Unmarshal(data, &raws)
	if err != nil {
		return fmt.Errorf("actions must be a list: %w", err)
	}

	if raws == nil {
		*a = nil

		return nil
	}

	actions := make(Actions, 0, len(raws))
	for _, raw := range raws {
		actions = append(actions, DecodeAction(raw))
	}

	*a = actions

	return nil
}
