package moulinette

// Summary flattens the result into the analytics projection: one key per
// regulation and per criterion. Being map-keyed, it is unaffected by the
// order criteria were configured in.
func (r *MoulinetteResult) Summary() map[string]string {
	out := map[string]string{"result": string(r.Result)}
	for _, reg := range r.Regulations {
		out[reg.Slug] = string(reg.Result)
		for _, c := range reg.Criteria {
			key := reg.Slug + "." + c.Slug
			if c.Perimeter != "" {
				key += ":" + c.Perimeter
			}
			out[key] = c.ResultCode
		}
	}
	return out
}
