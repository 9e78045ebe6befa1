package pvpchess

// liveOffer returns the pending offer unless ttlMs > 0 and it has expired.
func liveOffer(g *Game, now, ttlMs int64) *DrawOffer {
	if g.DrawOffer == nil {
		return nil
	}
	if ttlMs > 0 && now-g.DrawOffer.OfferedAt >= ttlMs {
		return nil
	}
	return g.DrawOffer
}

// pruneOffer drops an expired offer before a committed mutation.
func pruneOffer(g *Game, now, ttlMs int64) {
	if liveOffer(g, now, ttlMs) == nil {
		g.DrawOffer = nil
	}
}

// offerDraw replaces any prior offer with one addressed to the opponent.
func offerDraw(g *Game, requester string, now int64) error {
	c, ok := g.PlayerColor(requester)
	if !ok {
		return ErrUnauthorized
	}
	if err := requireActive(g); err != nil {
		return err
	}
	g.DrawOffer = &DrawOffer{
		OfferedBy: requester,
		OfferedTo: g.Seat(c.Opponent()).ID,
		OfferedAt: now,
	}
	g.UpdatedAt = msTime(now)
	return nil
}

// respondDraw accepts or declines the live offer. Accepting returns the
// DrawAgreement outcome; declining clears the offer and play continues.
func respondDraw(g *Game, responder string, accept bool, now, ttlMs int64) (Outcome, error) {
	if _, ok := g.PlayerColor(responder); !ok {
		return nil, ErrUnauthorized
	}
	if err := requireActive(g); err != nil {
		return nil, err
	}
	offer := liveOffer(g, now, ttlMs)
	if offer == nil {
		return nil, ErrNoDrawOffer
	}
	if responder != offer.OfferedTo {
		return nil, ErrUnauthorized
	}
	g.DrawOffer = nil
	if !accept {
		g.UpdatedAt = msTime(now)
		return nil, nil
	}
	return DrawAgreement{}, nil
}

func cancelDraw(g *Game, requester string, now, ttlMs int64) error {
	if _, ok := g.PlayerColor(requester); !ok {
		return ErrUnauthorized
	}
	if err := requireActive(g); err != nil {
		return err
	}
	offer := liveOffer(g, now, ttlMs)
	if offer == nil {
		return ErrNoDrawOffer
	}
	if requester != offer.OfferedBy {
		return ErrUnauthorized
	}
	g.DrawOffer = nil
	g.UpdatedAt = msTime(now)
	return nil
}
