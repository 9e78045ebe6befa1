package httpapi

import (
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/park285/cheese-gamecore/internal/domain"
	"github.com/park285/cheese-gamecore/internal/pvpchess"
	"github.com/park285/cheese-gamecore/pkg/chessdto"
)

func (s *Server) view(ctx *fasthttp.RequestCtx, g *pvpchess.Game) chessdto.GameView {
	// a failing time source only degrades the clock snapshot
	now, _ := s.mgr.Now(ctx)
	v := pvpchess.ToDTO(g, now)
	if v.Termination != nil {
		v.Termination.Message = s.terminationText(g)
	}
	return v
}

func (s *Server) terminationText(g *pvpchess.Game) string {
	if g == nil || g.Termination == nil {
		return ""
	}
	winner := ""
	switch g.Termination.Winner {
	case pvpchess.WinnerWhite:
		winner = g.White.DisplayName()
	case pvpchess.WinnerBlack:
		winner = g.Black.DisplayName()
	}
	cause := string(g.Termination.Cause)
	return s.cat.Text("termination."+cause, map[string]any{"Winner": winner}, cause)
}

func (s *Server) termination(g *pvpchess.Game) *chessdto.TerminationView {
	t := pvpchess.TerminationDTO(g.Termination)
	if t != nil {
		t.Message = s.terminationText(g)
	}
	return t
}

func (s *Server) createGame(ctx *fasthttp.RequestCtx) {
	var req chessdto.CreateGameRequest
	if !decode(ctx, &req) {
		return
	}
	g, err := s.mgr.CreateGame(ctx, pvpchess.CreateRequest{
		Challenger:  pvpchess.Player{ID: req.Challenger.ID, Name: req.Challenger.Name},
		Opponent:    pvpchess.Player{ID: req.Opponent.ID, Name: req.Opponent.Name},
		Color:       req.Color,
		TimeControl: req.TimeControl,
		StartFEN:    req.StartFEN,
		Waiting:     req.Waiting,
	})
	if err != nil {
		s.writeError(ctx, err, "")
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, s.view(ctx, g))
}

func (s *Server) getGame(ctx *fasthttp.RequestCtx, id string) {
	g, err := s.mgr.GetGame(ctx, id)
	if err != nil {
		s.writeError(ctx, err, "")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.view(ctx, g))
}

func (s *Server) activate(ctx *fasthttp.RequestCtx, id string) {
	g, err := s.mgr.Activate(ctx, id)
	if err != nil {
		s.writeError(ctx, err, "")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.view(ctx, g))
}

func (s *Server) submitMove(ctx *fasthttp.RequestCtx, id string) {
	var req chessdto.MoveRequest
	if !decode(ctx, &req) {
		return
	}
	res, err := s.mgr.SubmitMove(ctx, id, req.PlayerID, req.Move)
	if err != nil {
		s.writeError(ctx, err, strings.TrimSpace(req.Move))
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, chessdto.MoveResponse{
		Game:        s.view(ctx, res.Game),
		Move:        res.UCI,
		SAN:         res.SAN,
		FEN:         res.FEN,
		SideToMove:  string(res.SideToMove),
		Termination: s.termination(res.Game),
		Ratings:     pvpchess.RatingsDTO(res.Ratings),
	})
}

func (s *Server) checkTimeout(ctx *fasthttp.RequestCtx, id string) {
	res, err := s.mgr.CheckTimeout(ctx, id)
	if err != nil {
		s.writeError(ctx, err, "")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, chessdto.TimeoutResponse{
		TimedOut:    res.TimedOut,
		Winner:      string(res.Winner),
		Termination: s.termination(res.Game),
		Game:        s.view(ctx, res.Game),
	})
}

func (s *Server) finalizeRatings(ctx *fasthttp.RequestCtx, id string) {
	ro, err := s.mgr.FinalizeRatings(ctx, id)
	if err != nil {
		s.writeError(ctx, err, "")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, pvpchess.RatingsDTO(ro))
}

func (s *Server) resign(ctx *fasthttp.RequestCtx, id string) {
	var req chessdto.PlayerRequest
	if !decode(ctx, &req) {
		return
	}
	res, err := s.mgr.Resign(ctx, id, req.PlayerID)
	s.writeAction(ctx, res, err)
}

func (s *Server) drawAction(ctx *fasthttp.RequestCtx, id, action string) {
	var (
		res *pvpchess.ActionResult
		err error
	)
	switch action {
	case "offer":
		var req chessdto.PlayerRequest
		if !decode(ctx, &req) {
			return
		}
		res, err = s.mgr.OfferDraw(ctx, id, req.PlayerID)
	case "respond":
		var req chessdto.DrawResponseRequest
		if !decode(ctx, &req) {
			return
		}
		res, err = s.mgr.RespondDraw(ctx, id, req.PlayerID, req.Accept)
	case "cancel":
		var req chessdto.PlayerRequest
		if !decode(ctx, &req) {
			return
		}
		res, err = s.mgr.CancelDraw(ctx, id, req.PlayerID)
	default:
		s.fail(ctx, fasthttp.StatusNotFound, "not_found", "no such route")
		return
	}
	s.writeAction(ctx, res, err)
}

func (s *Server) writeAction(ctx *fasthttp.RequestCtx, res *pvpchess.ActionResult, err error) {
	if err != nil {
		s.writeError(ctx, err, "")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, chessdto.ActionResponse{
		Game:        s.view(ctx, res.Game),
		Termination: s.termination(res.Game),
		Ratings:     pvpchess.RatingsDTO(res.Ratings),
	})
}

func (s *Server) pgn(ctx *fasthttp.RequestCtx, id string) {
	text, err := s.mgr.PGN(ctx, id)
	if err != nil {
		s.writeError(ctx, err, "")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/x-chess-pgn")
	ctx.SetBodyString(text)
}

func (s *Server) rating(ctx *fasthttp.RequestCtx, playerID string) {
	r, err := s.mgr.Rating(ctx, playerID)
	if err != nil {
		s.writeError(ctx, err, "")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, pvpchess.RatingDTO(r))
}

// playerGames lists stored sessions; ?active=1 narrows to the current game.
func (s *Server) playerGames(ctx *fasthttp.RequestCtx, playerID string) {
	if ctx.QueryArgs().GetBool("active") {
		g, err := s.mgr.ActiveGameByUser(ctx, playerID)
		if err != nil {
			s.writeError(ctx, err, "")
			return
		}
		if g == nil {
			s.fail(ctx, fasthttp.StatusNotFound, "not_found", "no active game")
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, s.view(ctx, g))
		return
	}
	list, err := s.mgr.GamesByUser(ctx, playerID)
	if err != nil {
		s.writeError(ctx, err, "")
		return
	}
	views := make([]chessdto.GameView, 0, len(list))
	for _, g := range list {
		views = append(views, s.view(ctx, g))
	}
	writeJSON(ctx, fasthttp.StatusOK, views)
}

func (s *Server) playerHistory(ctx *fasthttp.RequestCtx, playerID string) {
	if s.history == nil {
		s.fail(ctx, fasthttp.StatusServiceUnavailable, "internal", "history is not configured")
		return
	}
	rows, err := s.history.History(ctx, playerID, queryInt(ctx, "limit", 20))
	if err != nil {
		s.writeError(ctx, err, "")
		return
	}
	out := chessdto.HistoryResponse{PlayerID: playerID, Games: make([]chessdto.HistoryEntry, 0, len(rows))}
	for _, a := range rows {
		out.Games = append(out.Games, historyEntry(a, playerID))
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func historyEntry(a domain.ArchivedGame, playerID string) chessdto.HistoryEntry {
	color, oppID, oppName := "white", a.BlackID, a.BlackName
	if a.BlackID == playerID {
		color, oppID, oppName = "black", a.WhiteID, a.WhiteName
	}
	result := "loss"
	switch a.Winner {
	case color:
		result = "win"
	case string(pvpchess.WinnerDraw):
		result = "draw"
	case string(pvpchess.WinnerNone):
		result = "none"
	}
	return chessdto.HistoryEntry{
		GameID:       a.GameID,
		OpponentID:   oppID,
		OpponentName: oppName,
		Color:        color,
		Result:       result,
		ResultMethod: a.ResultMethod,
		Opening:      a.Opening,
		RatingDelta:  a.RatingDelta(playerID),
		Moves:        len(a.MovesUCI),
		EndedAt:      a.EndedAt,
		DurationMs:   a.Duration.Milliseconds(),
	}
}
