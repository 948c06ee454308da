package pairs

// samplePartner picks the partner row for index i: a uniform draw from
// i's identity group, dropping i itself when identity avoidance is on and
// the group has other members. A singleton group always yields i,
// regardless of the avoidance setting.
func (d *Dataset) samplePartner(i int) int {
	pool := d.cat.Choices(i)
	if d.cfg.AvoidIdentity && len(pool) > 1 {
		n := d.rng.Intn(len(pool) - 1)
		for _, j := range pool {
			if j == i {
				continue
			}
			if n == 0 {
				return j
			}
			n--
		}
	}
	return pool[d.rng.Intn(len(pool))]
}
