package crossref

// worksResponse is the JSON envelope returned by the Crossref works endpoint.
type worksResponse struct {
	Status  string  `json:"status"`
	Message message `json:"message"`
}

type message struct {
	TotalResults int    `json:"total-results"`
	Items        []Item `json:"items"`
}

// Item is a single work in a Crossref response.
type Item struct {
	DOI            string     `json:"DOI"`
	Type           string     `json:"type"`
	Title          []string   `json:"title"`
	ContainerTitle []string   `json:"container-title"`
	Author         []Author   `json:"author"`
	Abstract       string     `json:"abstract"`
	URL            string     `json:"URL"`
	PublishedPrint *dateField `json:"published-print"`
}

// Author is a contributor entry with separate given and family names.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type dateField struct {
	DateParts [][]int `json:"date-parts"`
}
