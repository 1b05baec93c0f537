// Package protocol defines the JSON messages exchanged with clients. Every
// inbound message carries an "action" discriminator selecting exactly one
// request kind; every request gets exactly one Response.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"github.com/go-playground/validator/v10"
)

type Action string

const (
	ActionCreateUser    Action = "createUser"
	ActionLogin         Action = "login"
	ActionLogout        Action = "logout"
	ActionGetFileList   Action = "getFileList"
	ActionGetFileByName Action = "getFileByName"
	ActionSaveSVG       Action = "saveSVG"
)

// Response action names. The original web client keys its handlers on these.
const (
	replyCreateUser = "createUser"
	replyLogin      = "login"
	replyLogout     = "logout"
	replyFileList   = "fileList"
	replySVGData    = "svgData"
	replySaveSVG    = "saveSVG"
)

var (
	ErrParse         = errors.New("error parsing message")
	ErrInvalidAction = errors.New("invalid action")
)

// Request is one of the concrete request types below.
type Request interface {
	Action() Action
}

type CreateUserRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type LoginRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type LogoutRequest struct {
	SessionToken string `validate:"required"`
}

type GetFileListRequest struct {
	SessionToken string
}

type GetFileByNameRequest struct {
	SessionToken string
	Name         string `validate:"required"`
}

type SaveSVGRequest struct {
	SessionToken string
	Name         string `validate:"required"`
	Content      string `validate:"required"`
}

func (CreateUserRequest) Action() Action    { return ActionCreateUser }
func (LoginRequest) Action() Action         { return ActionLogin }
func (LogoutRequest) Action() Action        { return ActionLogout }
func (GetFileListRequest) Action() Action   { return ActionGetFileList }
func (GetFileByNameRequest) Action() Action { return ActionGetFileByName }
func (SaveSVGRequest) Action() Action       { return ActionSaveSVG }

// wireRequest is the union of all request fields. sessionId, fileName and
// svgData are the field names used by the original web client.
type wireRequest struct {
	Action       *string `json:"action"`
	Username     string  `json:"username"`
	Password     string  `json:"password"`
	SessionToken string  `json:"sessionToken"`
	SessionID    string  `json:"sessionId"`
	Name         string  `json:"name"`
	FileName     string  `json:"fileName"`
	Content      string  `json:"content"`
	SVGData      string  `json:"svgData"`
}

func (w *wireRequest) token() string { return firstNonEmpty(w.SessionToken, w.SessionID) }
func (w *wireRequest) name() string  { return firstNonEmpty(w.Name, w.FileName) }

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

var variants = map[Action]func(w *wireRequest) Request{
	ActionCreateUser: func(w *wireRequest) Request {
		return CreateUserRequest{Username: w.Username, Password: w.Password}
	},
	ActionLogin: func(w *wireRequest) Request {
		return LoginRequest{Username: w.Username, Password: w.Password}
	},
	ActionLogout: func(w *wireRequest) Request {
		return LogoutRequest{SessionToken: w.token()}
	},
	ActionGetFileList: func(w *wireRequest) Request {
		return GetFileListRequest{SessionToken: w.token()}
	},
	ActionGetFileByName: func(w *wireRequest) Request {
		return GetFileByNameRequest{SessionToken: w.token(), Name: w.name()}
	},
	ActionSaveSVG: func(w *wireRequest) Request {
		return SaveSVGRequest{SessionToken: w.token(), Name: w.name(), Content: firstNonEmpty(w.Content, w.SVGData)}
	},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode classifies raw into a concrete request.
//
// It returns ErrParse for input that is not a JSON object of the expected
// field types and ErrInvalidAction for a missing or unknown discriminator.
// A request with missing required fields is returned together with an
// error wrapping common.ErrorValidation, so callers still know its kind.
func Decode(raw []byte) (Request, error) {
	var w wireRequest
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if w.Action == nil {
		return nil, ErrInvalidAction
	}
	build, ok := variants[Action(*w.Action)]
	if !ok {
		return nil, ErrInvalidAction
	}

	req := build(&w)
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return req, fmt.Errorf("%w: missing %s", common.ErrorValidation, strings.Join(fields, ", "))
		}
		return req, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return req, nil
}
