package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2_Arithmetic(t *testing.T) {
	a := Vec2{X: 3, Y: -2}
	b := Vec2{X: 1, Y: 4}

	assert.Equal(t, Vec2{X: 4, Y: 2}, a.Add(b))
	assert.Equal(t, Vec2{X: 2, Y: -6}, a.Sub(b))
	assert.Equal(t, Vec2{X: 12, Y: -8}, a.Scale(4))
	assert.Equal(t, 8, a.Manhattan(b), "Манхэттенское расстояние должно учитывать модули")
}

func TestVec2_Directions(t *testing.T) {
	for _, d := range Neighbours {
		assert.True(t, d.IsUnit(), "Направление %v должно быть единичным", d)
	}
	assert.True(t, Zero.IsZero())
	assert.False(t, Vec2{X: 1, Y: 1}.IsUnit(), "Диагональ не является осевым шагом")
	assert.Equal(t, [4]Vec2{Right, Left, Down, Up}, Neighbours, "Порядок обхода фиксирован")
}

func TestVec2_PixelCenter(t *testing.T) {
	x, y := Vec2{X: 2, Y: 3}.PixelCenter(20)
	assert.Equal(t, 50, x)
	assert.Equal(t, 70, y)
}
