package models

type Alliance struct {
	Score    int      `json:"score"`
	TeamKeys []string `json:"teamKeys"`
}

type MatchAlliances struct {
	Red  Alliance `json:"red"`
	Blue Alliance `json:"blue"`
}

// ScoreBreakdown keeps only the phase totals used for EPA estimates.
type ScoreBreakdown struct {
	AutoPoints    float64 `json:"autoPoints"`
	TeleopPoints  float64 `json:"teleopPoints"`
	EndgamePoints float64 `json:"endgamePoints"`
}

type MatchBreakdown struct {
	Red  *ScoreBreakdown `json:"red,omitempty"`
	Blue *ScoreBreakdown `json:"blue,omitempty"`
}

type Match struct {
	Key             string          `json:"key"`
	EventKey        string          `json:"eventKey"`
	CompLevel       string          `json:"compLevel"`
	SetNumber       int             `json:"setNumber"`
	MatchNumber     int             `json:"matchNumber"`
	WinningAlliance string          `json:"winningAlliance"`
	Time            int64           `json:"time,omitempty"`
	PredictedTime   int64           `json:"predictedTime,omitempty"`
	ActualTime      int64           `json:"actualTime,omitempty"`
	Alliances       MatchAlliances  `json:"alliances"`
	Breakdown       *MatchBreakdown `json:"breakdown,omitempty"`
}

// Played reports whether scores are posted; unplayed matches carry -1.
func (m Match) Played() bool {
	return m.Alliances.Red.Score >= 0 && m.Alliances.Blue.Score >= 0
}

type Team struct {
	Key        string `json:"key"`
	TeamNumber int    `json:"teamNumber"`
	Nickname   string `json:"nickname"`
	Name       string `json:"name,omitempty"`
	City       string `json:"city,omitempty"`
	StateProv  string `json:"stateProv,omitempty"`
	Country    string `json:"country,omitempty"`
}

type WinLossRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

type Ranking struct {
	Rank          int           `json:"rank"`
	TeamKey       string        `json:"teamKey"`
	MatchesPlayed int           `json:"matchesPlayed"`
	Record        WinLossRecord `json:"record"`
	SortOrders    []float64     `json:"sortOrders,omitempty"`
	DQ            int           `json:"dq"`
}

type Webcast struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	File    string `json:"file,omitempty"`
	Date    string `json:"date,omitempty"`
}

type Stream struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	URL     string `json:"url"`
}

const (
	EPASourceStatbotics = "statbotics"
	EPASourceLocal      = "local"
)

// EPA is an expected points added estimate, values rounded to two decimals.
type EPA struct {
	TeamNumber int     `json:"teamNumber"`
	EventKey   string  `json:"eventKey,omitempty"`
	Overall    float64 `json:"overall"`
	Auto       float64 `json:"auto"`
	Teleop     float64 `json:"teleop"`
	Endgame    float64 `json:"endgame"`
	Source     string  `json:"source"`
}

type TeamStats struct {
	TeamNumber int     `json:"teamNumber"`
	Year       int     `json:"year"`
	EventKey   string  `json:"eventKey,omitempty"`
	EPA        float64 `json:"epa"`
	AutoEPA    float64 `json:"autoEpa"`
	TeleopEPA  float64 `json:"teleopEpa"`
	EndgameEPA float64 `json:"endgameEpa"`
	WinRate    float64 `json:"winRate"`
	Record     string  `json:"record"`
}

type EventStats struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Year     int     `json:"year"`
	NumTeams int     `json:"numTeams"`
	Status   string  `json:"status"`
	EPAMax   float64 `json:"epaMax"`
	EPATop8  float64 `json:"epaTop8"`
	EPAMean  float64 `json:"epaMean"`
}

type LiveMatch struct {
	Label              string   `json:"label"`
	Status             string   `json:"status"`
	RedTeams           []string `json:"redTeams"`
	BlueTeams          []string `json:"blueTeams"`
	EstimatedStartTime int64    `json:"estimatedStartTime,omitempty"`
}

// LiveEvent is the live-event status for one event key.
type LiveEvent struct {
	EventKey     string     `json:"eventKey"`
	IsLive       bool       `json:"isLive"`
	NowQueuing   string     `json:"nowQueuing,omitempty"`
	CurrentMatch *LiveMatch `json:"currentMatch"`
	NextMatch    *LiveMatch `json:"nextMatch"`
	LastUpdate   int64      `json:"lastUpdate"`
}
