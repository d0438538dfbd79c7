package content

import "github.com/Kyz7/sitecms/internal/models"

var (
	BoardMembers = NewResource[models.BoardMember]("Board member", "/board-members",
		[]string{"name", "position"}, []string{"bio"})
	Projects = NewResource[models.Project]("Project", "/projects",
		[]string{"title"}, []string{"description"})
	Gallery = NewResource[models.GalleryImage]("Gallery image", "/gallery",
		[]string{"imageUrl"}, nil)
	Carousel = NewResource[models.CarouselItem]("Carousel item", "/carousel",
		[]string{"mediaUrl"}, nil)
	Ticker = NewResource[models.TickerItem]("Ticker item", "/ticker",
		[]string{"text"}, nil)
	Services = NewResource[models.Service]("Service", "/services",
		[]string{"title"}, []string{"description"})
	Shop = NewResource[models.ShopItem]("Shop item", "/shop",
		[]string{"name"}, []string{"description"})
)

func Resources() []Registrar {
	return []Registrar{BoardMembers, Projects, Gallery, Carousel, Ticker, Services, Shop}
}
