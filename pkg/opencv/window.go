package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Window shows images in a HighGUI window and waits for a key press.
type Window struct{}

// Show opens a window named title, draws img, blocks until any key is
// pressed and then closes the window.
func (Window) Show(title string, img image.Image) error {
	var (
		mat gocv.Mat
		err error
	)
	if gray, ok := img.(*image.Gray); ok {
		mat, err = gocv.ImageGrayToMatGray(gray)
	} else {
		mat, err = bgrMat(img)
	}
	if err != nil {
		return fmt.Errorf("opencv: %w", err)
	}
	defer mat.Close()

	window := gocv.NewWindow(title)
	defer window.Close()

	window.IMShow(mat)
	window.WaitKey(0)

	return nil
}
