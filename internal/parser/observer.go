package parser

// Observer receives progress callbacks from the session builder. The parser
// itself stays side-effect free; callers decide whether events are logged,
// counted, or ignored.
type Observer interface {
	SessionStarted(member string)
	SessionClosed(member string, statementCount int, implicit bool)
	StatementParsed(speaker string, role Role)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(string)           {}
func (nopObserver) SessionClosed(string, int, bool) {}
func (nopObserver) StatementParsed(string, Role)    {}
