package domain

// ClientSession is the (room, name) binding established for one client before
// its channel is attached. It lives on the connection handler and is never
// shared between clients.
type ClientSession struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

func (s ClientSession) Valid() bool {
	return s.Room != "" && s.Name != ""
}
