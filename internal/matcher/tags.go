package matcher

// Tags is the controlled vocabulary opportunities are labeled with. Ingest
// rejects tags outside this list.
var Tags = []string{
	"Ideation",
	"Problem Validation",
	"Solution Design",
	"Product-Market Fit (PMF)",
	"Early Traction",
	"Growth Stage",
	"Scaling",
	"Exit Strategy",
	"Hackathons",
	"Workshops",
	"Networking Events",
	"Internships",
	"Startup Competitions",
	"Volunteering",
	"Conferences",
	"Meetups",
	"Mentorship Programs",
	"Accelerators",
	"Incubators",
	"Pitch Competitions",
	"Product Development",
	"UX/UI Design",
	"Engineering",
	"Pricing Strategy",
	"Revenue Models",
	"Customer Support",
	"Legal & Compliance",
	"Operations",
	"Customer Acquisition",
	"Content Marketing",
	"SEO",
	"Paid Ads (PPC)",
	"Social Media",
	"Email Marketing",
	"Viral Growth",
	"Community Building",
	"Sales Strategy",
	"B2B Sales",
	"B2C Sales",
	"Partnerships",
	"Negotiation Tactics",
	"Churn Reduction",
	"Bootstrapping",
	"Pre-Seed Funding",
	"Seed Funding",
	"Series A+",
	"VC Pitching",
	"Financial Planning",
	"Unit Economics",
	"Founder Mental Health",
	"Hiring",
	"Remote Teams",
	"Team Culture",
	"Leadership Skills",
	"Data Analytics",
	"AI/ML",
	"Tech Stack",
	"Cybersecurity",
	"SaaS",
	"E-commerce",
	"Hardware",
	"Web3",
}

var tagSet = func() map[string]bool {
	m := make(map[string]bool, len(Tags))
	for _, t := range Tags {
		m[t] = true
	}
	return m
}()

// ValidTag reports whether t belongs to the vocabulary.
func ValidTag(t string) bool {
	return tagSet[t]
}
