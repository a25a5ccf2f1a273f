package site

// Default returns the built-in document used when neither the cache nor the
// seed document can be loaded. Each call returns a fresh copy.
func Default() *SiteData {
	blog := "blog"

	return &SiteData{
		Site: SiteConfig{
			Title:       "My Static CMS",
			Description: "A simple static content management system",
		},
		Pages: []PageEntry{
			{
				Slug:        "home",
				Title:       "Welcome to My CMS",
				Template:    TemplateHome,
				Description: String("A modern, minimal content management system"),
				Items: []PageItem{
					{Title: "Blog", Description: String("Read our latest articles and insights"), Link: String("/blog")},
					{Title: "Portfolio", Description: String("Check out our latest projects"), Link: String("/portfolio")},
					{Title: "About", Description: String("Learn more about what we do"), Link: String("/about")},
				},
			},
			{
				Slug:        "blog",
				Title:       "Blog Posts",
				Template:    TemplateListing,
				Description: String("Our latest articles and insights"),
				Category:    String(blog),
				Items: []PageItem{
					{Title: "Getting Started with Static CMS", Description: String("Learn how to use our static CMS effectively"), Link: String("/blog/getting-started")},
					{Title: "Best Practices for Content Management", Description: String("Tips and tricks for managing your content"), Link: String("/blog/best-practices")},
				},
			},
			{
				Slug:        "getting-started",
				Title:       "Getting Started with Static CMS",
				Template:    TemplateDetail,
				Description: String("A comprehensive guide to using our static content management system"),
				Category:    String(blog),
				Author:      String("CMS Team"),
				PublishDate: String("2024-01-15"),
				ReadTime:    Int(5),
				Content:     String(gettingStartedContent),
				Tags:        []string{"tutorial", "cms", "guide"},
			},
			{
				Slug:        "best-practices",
				Title:       "Best Practices for Content Management",
				Template:    TemplateDetail,
				Description: String("Essential tips and strategies for effective content management"),
				Category:    String(blog),
				Author:      String("Content Team"),
				PublishDate: String("2024-01-20"),
				ReadTime:    Int(7),
				Content:     String(bestPracticesContent),
				Tags:        []string{"best-practices", "content", "strategy"},
			},
		},
	}
}

const gettingStartedContent = `Welcome to our static CMS! This guide will help you get started with creating and managing your content.

## What is a Static CMS?

A static CMS is a content management system that generates static websites. Unlike traditional CMSs that rely on databases and server-side processing, static CMSs create pre-built HTML files that can be served quickly and securely.

## Key Features

- **Fast Performance**: Static sites load quickly since there's no database queries
- **High Security**: No server-side vulnerabilities or database attacks
- **Easy Deployment**: Deploy anywhere that serves static files
- **Version Control**: Track changes with Git
- **Cost Effective**: Minimal hosting requirements

## Getting Started

1. **Create Your Content**: Use the admin panel to add new pages
2. **Choose Templates**: Select from home, listing, or detail page templates
3. **Configure YAML**: Edit the YAML configuration for advanced customization
4. **Preview**: View your changes in real-time
5. **Deploy**: Export your static files for deployment

## Template Types

### Home Page
The home page template displays a grid of cards, perfect for navigation or showcasing key sections of your site.

### Listing Page
Listing pages show a collection of links or items, ideal for blog post lists, portfolios, or resource collections.

### Detail Page
Detail pages are perfect for blog posts, articles, or any content that needs a full page layout with rich text content.

## Tips for Success

- Keep your content organized with clear categories
- Use descriptive slugs for better SEO
- Optimize images for web performance
- Regular backup your YAML configuration

Happy content creating!`

const bestPracticesContent = `Content management is both an art and a science. Here are some best practices to help you create and maintain high-quality content.

## Content Strategy

### Know Your Audience
Understanding your audience is crucial for creating relevant and engaging content. Consider:
- Demographics and psychographics
- Content preferences and consumption habits
- Pain points and challenges
- Goals and motivations

### Plan Your Content
- Create a content calendar
- Define clear objectives for each piece
- Maintain consistency in tone and style
- Plan for different content types and formats

## Content Creation

### Writing Best Practices
- Start with a compelling headline
- Use clear, concise language
- Structure content with headings and subheadings
- Include relevant examples and case studies
- End with a clear call-to-action

### SEO Optimization
- Research and use relevant keywords naturally
- Optimize meta descriptions and titles
- Use descriptive alt text for images
- Create internal links between related content
- Ensure fast page loading times

## Content Maintenance

### Regular Updates
- Review content for accuracy and relevance
- Update outdated information and links
- Refresh older content with new insights
- Archive or redirect obsolete pages

### Performance Monitoring
- Track content performance metrics
- Analyze user engagement and behavior
- Identify top-performing content
- Learn from less successful pieces

## Quality Assurance

### Editorial Process
- Establish a review workflow
- Use consistent style guidelines
- Fact-check all information
- Proofread for grammar and spelling
- Test all links and functionality

### Accessibility
- Use proper heading hierarchy
- Provide alt text for images
- Ensure good color contrast
- Write descriptive link text
- Test with screen readers

Following these best practices will help you create content that not only engages your audience but also achieves your business objectives.`
