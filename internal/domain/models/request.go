package models

// MaterialRequest is one material line; the material is requested when Quantity is set.
type MaterialRequest struct {
	Material  Material
	Quantity  *float64
	SpotPrice *float64
}

// Requested reports whether a quantity was supplied.
func (r MaterialRequest) Requested() bool {
	return r.Quantity != nil
}

// EstimateRequest is a full estimate input. Horizon nil means the default.
type EstimateRequest struct {
	RequestID string
	Materials map[Material]MaterialRequest
	Horizon   *int
}

// EstimateQuery is the transport form shared by the query and websocket APIs.
type EstimateQuery struct {
	ST37             *float64 `query:"st37" json:"st37" validate:"omitempty,gt=0,finite"`
	Copper           *float64 `query:"copper" json:"copper" validate:"omitempty,gt=0,finite"`
	Alu              *float64 `query:"alu" json:"alu" validate:"omitempty,gt=0,finite"`
	Labour           *float64 `query:"labour" json:"labour" validate:"omitempty,gt=0,finite"`
	HighCarbon       *float64 `query:"high_carbon" json:"high_carbon" validate:"omitempty,gt=0,finite"`
	GreyCastIron     *float64 `query:"grey_cast_iron" json:"grey_cast_iron" validate:"omitempty,gt=0,finite"`
	NodularCastIron  *float64 `query:"nodular_cast_iron" json:"nodular_cast_iron" validate:"omitempty,gt=0,finite"`
	NonalloyCast     *float64 `query:"nonalloy_cast" json:"nonalloy_cast" validate:"omitempty,gt=0,finite"`
	MediumCarbon     *float64 `query:"medium_carbon" json:"medium_carbon" validate:"omitempty,gt=0,finite"`
	PST37            *float64 `query:"p_st37" json:"p_st37" validate:"omitempty,gt=0,finite"`
	PHighCarbon      *float64 `query:"p_high_carbon" json:"p_high_carbon" validate:"omitempty,gt=0,finite"`
	PGreyCastIron    *float64 `query:"p_grey_cast_iron" json:"p_grey_cast_iron" validate:"omitempty,gt=0,finite"`
	PNodularCastIron *float64 `query:"p_nodular_cast_iron" json:"p_nodular_cast_iron" validate:"omitempty,gt=0,finite"`
	PNonalloyCast    *float64 `query:"p_nonalloy_cast" json:"p_nonalloy_cast" validate:"omitempty,gt=0,finite"`
	PMediumCarbon    *float64 `query:"p_medium_carbon" json:"p_medium_carbon" validate:"omitempty,gt=0,finite"`
	Months           *int     `query:"months" json:"months"`
}

// ToEstimateRequest maps transport fields onto catalog materials.
func (q EstimateQuery) ToEstimateRequest(requestID string) EstimateRequest {
	pairs := []struct {
		m        Material
		qty, spt *float64
	}{
		{MaterialST37, q.ST37, q.PST37},
		{MaterialCopper, q.Copper, nil},
		{MaterialAlu, q.Alu, nil},
		{MaterialLabour, q.Labour, nil},
		{MaterialHighCarbon, q.HighCarbon, q.PHighCarbon},
		{MaterialGreyCastIron, q.GreyCastIron, q.PGreyCastIron},
		{MaterialNodularCastIron, q.NodularCastIron, q.PNodularCastIron},
		{MaterialNonalloyCast, q.NonalloyCast, q.PNonalloyCast},
		{MaterialMediumCarbon, q.MediumCarbon, q.PMediumCarbon},
	}

	req := EstimateRequest{
		RequestID: requestID,
		Materials: make(map[Material]MaterialRequest),
		Horizon:   q.Months,
	}
	for _, p := range pairs {
		if p.qty == nil && p.spt == nil {
			continue
		}
		req.Materials[p.m] = MaterialRequest{Material: p.m, Quantity: p.qty, SpotPrice: p.spt}
	}
	return req
}
