package protocol

// Client-visible messages.
const (
	MsgUserExists          = "User already exists"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgLogoutSuccessful    = "Logout successful"
	MsgInvalidSession      = "Invalid session"
	MsgUnauthorized        = "Unauthorized"
	MsgFileNotFound        = "File not found"
	MsgSavedSuccessfully   = "Saved successfully"
	MsgInvalidAction       = "Invalid action"
	MsgParseError          = "Error parsing message"
	MsgCredentialsRequired = "Username and password are required"
	MsgNameRequired        = "File name is required"
	MsgNameContentRequired = "File name and content are required"
	MsgInternal            = "Internal server error"
)

// Response is the single reply to one request. Auth replies carry the token
// under both sessionToken and sessionId; document replies carry the name and
// content under both spellings as well.
type Response struct {
	Action       string   `json:"action,omitempty"`
	Success      bool     `json:"success,omitempty"`
	Error        string   `json:"error,omitempty"`
	Message      string   `json:"message,omitempty"`
	SessionToken string   `json:"sessionToken,omitempty"`
	SessionID    string   `json:"sessionId,omitempty"`
	Username     string   `json:"username,omitempty"`
	FileList     []string `json:"fileList,omitzero"`
	Name         string   `json:"name,omitempty"`
	FileName     string   `json:"fileName,omitempty"`
	Content      string   `json:"content,omitempty"`
	SVGData      string   `json:"svgData,omitempty"`
}

// Failed reports whether r carries an error.
func (r Response) Failed() bool { return r.Error != "" }

// ReplyAction maps a request kind to the action echoed in its response.
func ReplyAction(a Action) string {
	switch a {
	case ActionCreateUser:
		return replyCreateUser
	case ActionLogin:
		return replyLogin
	case ActionLogout:
		return replyLogout
	case ActionGetFileList:
		return replyFileList
	case ActionGetFileByName:
		return replySVGData
	case ActionSaveSVG:
		return replySaveSVG
	}
	return ""
}

// Fail builds an error reply. a may be empty when the request kind is
// unknown.
func Fail(a Action, msg string) Response {
	return Response{Action: ReplyAction(a), Error: msg}
}

func SessionCreated(a Action, username, token string) Response {
	return Response{Action: ReplyAction(a), Success: true, Username: username, SessionToken: token, SessionID: token}
}

func LoggedOut() Response {
	return Response{Action: replyLogout, Success: true, Message: MsgLogoutSuccessful}
}

func FileList(names []string) Response {
	if names == nil {
		names = []string{}
	}
	return Response{Action: replyFileList, Success: true, FileList: names}
}

func File(name string, content []byte) Response {
	c := string(content)
	return Response{Action: replySVGData, Success: true, Name: name, FileName: name, Content: c, SVGData: c}
}

func Saved(name string) Response {
	return Response{Action: replySaveSVG, Success: true, Message: MsgSavedSuccessfully, Name: name, FileName: name}
}
