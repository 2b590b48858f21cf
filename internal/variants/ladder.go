package variants

// MaxPowerLevel is the highest threshold ladder index.
const MaxPowerLevel = 3

// ladders are ascending binarization cut points; higher power levels cover a
// wider and denser range.
var ladders = [MaxPowerLevel + 1][]int{
	{100},
	{60, 100, 150},
	{50, 70, 90, 110, 130, 150, 170},
	{20, 50, 60, 70, 80, 90, 100, 110, 130, 150, 170, 190, 210},
}

// Ladder returns a copy of the ladder for level, or nil if level is out of
// range.
func Ladder(level int) []int {
	if level < 0 || level > MaxPowerLevel {
		return nil
	}
	out := make([]int, len(ladders[level]))
	copy(out, ladders[level])
	return out
}
