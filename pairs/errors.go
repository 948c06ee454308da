package pairs

import "errors"

var (
	// ErrImageLoad reports an unreadable or undecodable image, mask or
	// segment file, or a mask whose dimensions do not match its image.
	ErrImageLoad = errors.New("image load")

	// ErrInvalidLabelShape reports a segmentation label map that is
	// neither a single 2-D plane nor a stack of 2-D planes.
	ErrInvalidLabelShape = errors.New("invalid label shape")
)
